// Package ffprobe inspects media files through ffprobe's JSON output.
//
// Prober runs the binary and decodes streams and container metadata into a
// Result. Result.Check verifies that a rendered tutorial carries the streams
// it is expected to have.
package ffprobe
