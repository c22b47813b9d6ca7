// Package media inspects audio files with ffprobe.
//
// Probe shells out to ffprobe's JSON interface and condenses the result into
// an Info focused on what matters for transcription: codec, duration, sample
// rate, and channel layout. The inspect command uses it to preview a batch
// without spinning up the recognition engine.
package media
