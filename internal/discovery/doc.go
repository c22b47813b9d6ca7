// Package discovery resolves a user-supplied input path into the ordered list
// of audio jobs a run processes.
//
// A file input must carry a supported extension; a directory input is
// enumerated (recursively or not), filtered by extension, deduplicated by
// canonical path, and sorted lexicographically by that canonical path so the
// same tree always yields the same job order on every platform. An empty
// directory is a valid zero-job result, not an error.
package discovery
