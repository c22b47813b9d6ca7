package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"scribe/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Output modes for transcription artifacts.
const (
	// OutputModeText writes only the plain-text transcript.
	OutputModeText = "text"
	// OutputModeSegments additionally writes sentence-level timestamps.
	OutputModeSegments = "segments"
	// OutputModeWords additionally writes word-level timestamps.
	OutputModeWords = "words"
)

// Model contains configuration for the recognition model location.
type Model struct {
	Dir string `toml:"dir"`
}

// Device contains the requested compute device per role.
type Device struct {
	ASR string `toml:"asr"`
}

// ASR contains recognition engine parameters.
type ASR struct {
	Language      string `toml:"language"`
	InitialPrompt string `toml:"initial_prompt"`
	BeamSize      int    `toml:"beam_size"`
	ComputeType   string `toml:"compute_type"`
	VADFilter     bool   `toml:"vad_filter"`
	OutputMode    string `toml:"output_mode"`
}

// Audio contains input discovery and output layout configuration.
type Audio struct {
	InputPath        string   `toml:"input_path"`
	OutputDir        string   `toml:"output_dir"`
	SupportedFormats []string `toml:"supported_formats"`
	SampleRate       int      `toml:"sample_rate"`
	Preprocess       bool     `toml:"preprocess"`
	Recursive        bool     `toml:"recursive"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	Dir           string `toml:"dir"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains push notification settings. An empty topic disables
// notifications entirely.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Config encapsulates all configuration values for scribe.
//
// Configuration sections by subsystem:
//   - Model: recognition model directory
//   - Device: requested compute device for recognition
//   - ASR: language, beam size, precision, VAD, prompt, output mode
//   - Audio: input path, output root, supported extensions, preprocessing
//   - Logging: log format, level, directory, and retention
//   - Notifications: optional ntfy topic for run lifecycle events
type Config struct {
	Model         Model         `toml:"model"`
	Device        Device        `toml:"device"`
	ASR           ASR           `toml:"asr"`
	Audio         Audio         `toml:"audio"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scribe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Invalid settings surface as configuration errors.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, configError("resolve path", err)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, configError("open", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, configError("parse", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, configError("normalize", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, configError("validate", err)
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ResolvePath reports where configuration would be loaded from for the given
// override path, and whether a file already exists there.
func ResolvePath(path string) (string, bool, error) {
	return resolveConfigPath(path)
}

// Overrides carries command-line values that take precedence over both file
// values and built-in defaults. Zero values leave the underlying setting
// untouched.
type Overrides struct {
	InputPath  string
	OutputDir  string
	Language   string
	BeamSize   *int
	Device     string
	OutputMode string
	Recursive  *bool
}

// Apply merges overrides into the configuration and re-validates the result.
func (c *Config) Apply(o Overrides) error {
	if strings.TrimSpace(o.InputPath) != "" {
		c.Audio.InputPath = o.InputPath
	}
	if strings.TrimSpace(o.OutputDir) != "" {
		c.Audio.OutputDir = o.OutputDir
	}
	if strings.TrimSpace(o.Language) != "" {
		c.ASR.Language = o.Language
	}
	if o.BeamSize != nil {
		c.ASR.BeamSize = *o.BeamSize
	}
	if strings.TrimSpace(o.Device) != "" {
		c.Device.ASR = o.Device
	}
	if strings.TrimSpace(o.OutputMode) != "" {
		c.ASR.OutputMode = o.OutputMode
	}
	if o.Recursive != nil {
		c.Audio.Recursive = *o.Recursive
	}

	if err := c.normalize(); err != nil {
		return configError("apply overrides", err)
	}
	if err := c.Validate(); err != nil {
		return configError("apply overrides", err)
	}
	return nil
}

// ResolveOutputMode merges the CLI artifact-mode flags over the configured
// output mode. Requesting both flags at once is a configuration conflict and
// fails before any input discovery runs.
func ResolveOutputMode(configured string, timestamps, words bool) (string, error) {
	if timestamps && words {
		return "", services.Wrap(services.ErrConfiguration, "config", "resolve output mode",
			"--timestamps and --words are mutually exclusive", nil)
	}
	if words {
		return OutputModeWords, nil
	}
	if timestamps {
		return OutputModeSegments, nil
	}
	mode := strings.ToLower(strings.TrimSpace(configured))
	if mode == "" {
		return OutputModeSegments, nil
	}
	return mode, nil
}

// EnsureDirectories creates the directories scribe writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Audio.OutputDir, c.Logging.Dir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// UvxBinary returns the launcher executable used to run the recognition CLI.
func (c *Config) UvxBinary() string {
	return "uvx"
}

// FFmpegBinary returns the ffmpeg executable name used for audio preprocessing.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for input inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func configError(operation string, err error) error {
	return services.Wrap(services.ErrConfiguration, "config", operation, "", err)
}
