// Package history keeps a ledger of recorded tutorials in SQLite.
//
// Each run is stored with its outcome and the placement of every narration
// clip on the video timeline, which makes drift between narration and video
// diagnosable after the workspace is gone. Schema changes bump the version
// in schema.go; users delete history.db to adopt a new schema.
package history
