// Package batch drives a transcription run from an ordered list of discovered
// audio jobs to a finalized report.
//
// The Runner owns the engine client for the whole run and processes jobs one
// at a time: the engine binds the compute device and a loaded model, so
// sequential execution is the resource model, not a simplification. Per job it
// invokes the engine, persists artifacts immediately on success, and captures
// failures into the report without aborting the batch. A file lock on the
// output root keeps concurrent runs from interleaving run directories, and
// every job is recorded in the run ledger as it completes.
package batch
