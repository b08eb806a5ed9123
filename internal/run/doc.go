// Package run sequences one tutorial recording from an empty workspace to a
// muxed video.
//
// A Runner walks a fixed state machine: the workspace is prepared and locked,
// a recorded browser session is started and the script drives it through the
// narration-aware tutorial façade, the session is closed so the recording is
// flushed, and the assembler places every narration clip on the video
// timeline. The workspace is removed on every exit path, including script
// failures and cancellation; cleanup errors are joined with the primary
// failure instead of replacing it.
//
// Each run carries a UUID correlation id through its context so log lines
// from speech, narration, browser and assembly components can be grouped.
// When a history recorder is attached the final Report is stored there.
package run
