// Package logs locates and tails the per-run JSON logs written under the
// state directory.
//
// Every run tees its log lines into <state_dir>/logs/walkthrough-<stamp>-<id>.log
// so the record survives the deleted workspace. Find resolves a run id (full
// or abbreviated) to its file, Last reads the final lines with bounded memory
// and Follow streams lines appended afterwards until the context ends.
package logs
