// Package narration serializes spoken narration against the UI script.
//
// A Clock remembers when the most recent clip stops playing. Every new
// narration first waits out the previous clip, then synthesizes, then records
// its own end time; blocking narrations additionally hold the caller for the
// part of the clip that synthesis latency has not already consumed. The
// Clock is the only suspension point in a run and is not safe for concurrent
// use.
package narration
