// Package logging builds the structured slog loggers scribe writes through.
//
// It owns the console and JSON handlers, routes records to stdout and the
// log file, and carries the standardized field names batch code uses to tag
// lines with run IDs, job ordinals, and correlation IDs. A no-op logger is
// available for tests and for wiring paths that must not fail.
//
// New components should obtain loggers here rather than assembling slog
// handlers themselves, so every line lands in the same places with the same
// keys.
package logging
