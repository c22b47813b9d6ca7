// Package logs reads and follows scribe's log file.
//
// Tail returns the trailing lines of a (possibly large) log without loading
// the whole file, plus the offset where following should resume. Follow polls
// from that offset and emits complete lines as they are appended, surviving
// truncation when the file is rotated underneath it.
package logs
