// Package whisper drives the faster-whisper recognition engine as an
// external CLI process and parses its JSON output into transcription
// results. The engine binds the selected device and loaded model for the
// whole run, so one client is constructed per run and reused across jobs.
// Batch code depends on the one-method Client interface, which test doubles
// implement with scripted outcomes.
package whisper
