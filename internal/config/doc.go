// Package config loads, normalizes, and validates scribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SCRIBE_MODEL_DIR. The Config type centralizes every knob the CLI needs,
// merged once per run: built-in defaults, then file values, then explicit
// command-line overrides, highest wins. Downstream components receive the
// resolved Config and never re-read raw sources.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical device and precision names, and clear validation
// errors.
package config
