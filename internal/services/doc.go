// Package services defines shared utilities consumed by the batch runner and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, job ordinals, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into the taxonomy run reports record (config, input, format, engine, io).
//
// Use these helpers when wiring new components so operational behaviour
// (error classification, observability) stays uniform across the pipeline.
package services
