package config

import (
	"fmt"
	"os"
	"strings"

	"scribe/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizeModel(); err != nil {
		return err
	}
	c.normalizeDevice()
	c.normalizeASR()
	if err := c.normalizeAudio(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizeModel() error {
	c.Model.Dir = strings.TrimSpace(c.Model.Dir)
	if c.Model.Dir == "" {
		if value, ok := os.LookupEnv("SCRIBE_MODEL_DIR"); ok {
			c.Model.Dir = strings.TrimSpace(value)
		}
	}
	if c.Model.Dir == "" {
		return nil
	}
	var err error
	if c.Model.Dir, err = expandPath(c.Model.Dir); err != nil {
		return fmt.Errorf("model.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDevice() {
	c.Device.ASR = strings.ToLower(strings.TrimSpace(c.Device.ASR))
	if c.Device.ASR == "" {
		c.Device.ASR = defaultDeviceASR
	}
}

func (c *Config) normalizeASR() {
	c.ASR.Language = strings.ToLower(strings.TrimSpace(c.ASR.Language))
	if c.ASR.Language == "" {
		c.ASR.Language = defaultLanguage
	}
	// English names and regional tags collapse to the engine's two-letter
	// code here; validation rejects anything Normalize cannot place.
	if normalized, err := language.Normalize(c.ASR.Language); err == nil {
		c.ASR.Language = normalized
	}
	c.ASR.ComputeType = strings.ToLower(strings.TrimSpace(c.ASR.ComputeType))
	if c.ASR.ComputeType == "" {
		c.ASR.ComputeType = defaultComputeType
	}
	c.ASR.OutputMode = strings.ToLower(strings.TrimSpace(c.ASR.OutputMode))
	if c.ASR.OutputMode == "" {
		c.ASR.OutputMode = defaultOutputMode
	}
	c.ASR.InitialPrompt = strings.TrimSpace(c.ASR.InitialPrompt)
}

func (c *Config) normalizeAudio() error {
	var err error
	if strings.TrimSpace(c.Audio.InputPath) != "" {
		if c.Audio.InputPath, err = expandPath(c.Audio.InputPath); err != nil {
			return fmt.Errorf("audio.input_path: %w", err)
		}
	} else {
		c.Audio.InputPath = ""
	}

	if strings.TrimSpace(c.Audio.OutputDir) == "" {
		c.Audio.OutputDir = defaultOutputDir
	}
	if c.Audio.OutputDir, err = expandPath(c.Audio.OutputDir); err != nil {
		return fmt.Errorf("audio.output_dir: %w", err)
	}

	if len(c.Audio.SupportedFormats) == 0 {
		c.Audio.SupportedFormats = defaultSupportedFormats()
	} else {
		formats := make([]string, 0, len(c.Audio.SupportedFormats))
		seen := make(map[string]struct{}, len(c.Audio.SupportedFormats))
		for _, format := range c.Audio.SupportedFormats {
			normalized := strings.ToLower(strings.TrimSpace(format))
			if normalized == "" {
				continue
			}
			if !strings.HasPrefix(normalized, ".") {
				normalized = "." + normalized
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			formats = append(formats, normalized)
		}
		if len(formats) == 0 {
			formats = defaultSupportedFormats()
		}
		c.Audio.SupportedFormats = formats
	}

	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = defaultLogDir
	}
	var err error
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}
