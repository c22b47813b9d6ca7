// Package preflight verifies the host before a run starts: the model
// directory exists and holds files, the input path is readable, the output
// and log directories exist or can be created, and the external binaries
// scribe shells out to are on PATH. Checks report pass/fail results instead
// of erroring so the status command can render all of them at once.
package preflight
