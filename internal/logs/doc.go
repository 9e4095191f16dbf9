// Package logs reads back the epubshrink log file.
//
// Tail prints the trailing lines of the file and, in follow mode, keeps
// polling for appended lines until the context is cancelled. Only complete
// lines are emitted so a record that is still being written is picked up on
// the next poll. A file that shrinks (rotation or truncation) is re-read from
// the start.
package logs
