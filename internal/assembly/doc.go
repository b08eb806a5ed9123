// Package assembly turns a finished recording session into the tutorial video.
//
// After the browser has closed, the workspace holds one screen recording and
// a clip per narration. Each clip's position in the video is reconstructed
// from its filename timestamp relative to the moment recording began; the
// clips are delayed into place, mixed into a single track and muxed onto the
// re-encoded recording with ffmpeg. The result is verified with ffprobe and
// moved into place atomically.
package assembly
