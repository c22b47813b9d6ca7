package whisper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Word is one recognized word with timing and confidence.
type Word struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Segment is a sentence-level span of recognized text.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result is the outcome of recognizing one audio file. Words is populated
// only when the client was configured for word timestamps.
type Result struct {
	Text     string
	Segments []Segment
	Words    []Word
	Language string
}

// Client defines the recognition capability consumed by the batch runner.
type Client interface {
	Transcribe(ctx context.Context, sourcePath string) (Result, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default uvx binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithFFmpegBinary overrides the default ffmpeg binary name.
func WithFFmpegBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.ffmpegBinary = binary
		}
	}
}

// WithScratchDir roots the per-job scratch directories instead of the
// system temp directory.
func WithScratchDir(dir string) Option {
	return func(c *CLI) {
		c.scratchDir = dir
	}
}

// CLI runs the engine through uvx and reads back its JSON payload.
type CLI struct {
	cfg          Config
	binary       string
	ffmpegBinary string
	scratchDir   string
}

// NewCLI constructs a client for one run using the given engine settings.
func NewCLI(cfg Config, opts ...Option) *CLI {
	cli := &CLI{
		cfg:          cfg,
		binary:       UVXCommand,
		ffmpegBinary: FFmpegCommand,
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Transcribe recognizes one audio file. The engine's raw output lands in a
// per-call scratch directory that is removed before returning; callers only
// ever see the parsed Result.
func (c *CLI) Transcribe(ctx context.Context, sourcePath string) (Result, error) {
	var result Result
	if strings.TrimSpace(sourcePath) == "" {
		return result, errors.New("transcribe: source path required")
	}

	scratch, err := os.MkdirTemp(c.scratchDir, "scribe-asr-")
	if err != nil {
		return result, fmt.Errorf("transcribe: scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	input := sourcePath
	if c.cfg.Preprocess {
		converted := filepath.Join(scratch, sourceStem(sourcePath)+".wav")
		if err := PreprocessAudio(ctx, c.ffmpegBinary, sourcePath, c.cfg.SampleRate, converted); err != nil {
			return result, err
		}
		input = converted
	}

	args := c.buildArgs(input, scratch)
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return result, fmt.Errorf("%s: %w: %s", EnginePackage, err, strings.TrimSpace(string(output)))
	}

	payloadPath := filepath.Join(scratch, sourceStem(input)+".json")
	data, err := os.ReadFile(payloadPath)
	if err != nil {
		return result, fmt.Errorf("read engine output: %w", err)
	}
	return parsePayload(data, c.cfg.WordTimestamps)
}

// buildArgs constructs the uvx command arguments for the engine.
func (c *CLI) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 32)

	args = append(args,
		EnginePackage,
		source,
		"--model_directory", c.cfg.ModelDir,
		"--device", c.cfg.Device,
	)
	if c.cfg.Device == CUDADevice {
		args = append(args, "--device_index", strconv.Itoa(c.cfg.DeviceIndex))
	}
	args = append(args,
		"--compute_type", c.cfg.ComputeType,
		"--beam_size", strconv.Itoa(c.cfg.BeamSize),
	)

	// "auto" means engine-side detection, expressed by omitting the flag.
	if lang := strings.TrimSpace(c.cfg.Language); lang != "" && lang != "auto" {
		args = append(args, "--language", lang)
	}

	args = append(args, "--vad_filter", pythonBool(c.cfg.VADFilter))
	if c.cfg.InitialPrompt != "" {
		args = append(args, "--initial_prompt", c.cfg.InitialPrompt)
	}
	if c.cfg.WordTimestamps {
		args = append(args, "--word_timestamps", "True")
	}

	args = append(args,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--verbose", "False",
	)
	return args
}

// payload structures mirror the engine's JSON writer.
type payloadWord struct {
	Word        string   `json:"word"`
	Start       float64  `json:"start"`
	End         float64  `json:"end"`
	Probability *float64 `json:"probability"`
}

type payloadSegment struct {
	Text  string        `json:"text"`
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Words []payloadWord `json:"words"`
}

type enginePayload struct {
	Text     string           `json:"text"`
	Segments []payloadSegment `json:"segments"`
	Language string           `json:"language"`
}

func parsePayload(data []byte, wantWords bool) (Result, error) {
	var payload enginePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Result{}, fmt.Errorf("parse engine json: %w", err)
	}

	result := Result{Language: payload.Language}
	for _, seg := range payload.Segments {
		result.Segments = append(result.Segments, Segment{
			Text:  strings.TrimSpace(seg.Text),
			Start: seg.Start,
			End:   seg.End,
		})
	}

	result.Text = strings.TrimSpace(payload.Text)
	if result.Text == "" {
		result.Text = joinSegmentText(payload.Segments)
	}

	if wantWords {
		result.Words = collectWords(payload.Segments)
	}
	return result, nil
}

// collectWords flattens per-segment word alignments. A segment the engine
// could not align contributes itself as a single full-confidence word.
func collectWords(segments []payloadSegment) []Word {
	var words []Word
	for _, seg := range segments {
		if len(seg.Words) == 0 {
			words = append(words, Word{
				Word:       strings.TrimSpace(seg.Text),
				Start:      seg.Start,
				End:        seg.End,
				Confidence: 1.0,
			})
			continue
		}
		for _, w := range seg.Words {
			confidence := 1.0
			if w.Probability != nil {
				confidence = *w.Probability
			}
			words = append(words, Word{
				Word:       strings.TrimSpace(w.Word),
				Start:      w.Start,
				End:        w.End,
				Confidence: confidence,
			})
		}
	}
	return words
}

func joinSegmentText(segments []payloadSegment) string {
	var builder strings.Builder
	for _, seg := range segments {
		builder.WriteString(seg.Text)
	}
	return strings.TrimSpace(builder.String())
}

func sourceStem(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return stem
}

func pythonBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

var _ Client = (*CLI)(nil)
