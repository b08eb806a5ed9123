// Package workspace owns the per-run scratch directory.
//
// The directory is flat: narration clips named by their integral epoch-second
// start (`1700000000.wav`) plus the one screen recording the browser writes on
// close. There is no manifest; clips and the recording are discovered by
// extension and filename parsing. A sibling lock file keeps two processes
// from sharing the same workspace path.
package workspace
