// Package artifacts owns the on-disk output layout of a run. Each run gets a
// fresh directory under the output root named by its start-time identifier;
// reusing an existing identifier is an error, never a silent overwrite. Per
// job it writes the plain transcript and, depending on the run's output mode,
// a segment or word timing artifact derived from the job's base name.
package artifacts
