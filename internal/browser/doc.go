// Package browser launches the recorded Playwright session.
//
// A Recorder starts Chromium with slow-motion pacing and a browser context
// that records video into the run workspace. Closing the Session flushes the
// recording to disk; nothing is written until then.
package browser
