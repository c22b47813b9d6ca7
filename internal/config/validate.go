package config

import (
	"errors"
	"fmt"
	"strings"

	"scribe/internal/device"
	"scribe/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validateDevice(); err != nil {
		return err
	}
	if err := c.validateASR(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateModel() error {
	if c.Model.Dir == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/scribe/config.toml"
		}
		return fmt.Errorf("model.dir is required. Set SCRIBE_MODEL_DIR env var or edit %s (create with 'scribe config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateDevice() error {
	if _, err := device.ParseRequest(c.Device.ASR); err != nil {
		return fmt.Errorf("device.asr: %w", err)
	}
	return nil
}

func (c *Config) validateASR() error {
	if c.ASR.BeamSize <= 0 {
		return errors.New("asr.beam_size must be positive")
	}
	switch c.ASR.ComputeType {
	case "float32", "float16", "int8":
	default:
		return fmt.Errorf("asr.compute_type must be one of float32, float16, int8 (got %q)", c.ASR.ComputeType)
	}
	switch c.ASR.OutputMode {
	case OutputModeText, OutputModeSegments, OutputModeWords:
	default:
		return fmt.Errorf("asr.output_mode must be one of %s, %s, %s (got %q)",
			OutputModeText, OutputModeSegments, OutputModeWords, c.ASR.OutputMode)
	}
	if _, err := language.Normalize(c.ASR.Language); err != nil {
		return fmt.Errorf("asr.language: %w", err)
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.OutputDir == "" {
		return errors.New("audio.output_dir must be set")
	}
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	for _, format := range c.Audio.SupportedFormats {
		if !strings.HasPrefix(format, ".") || len(format) < 2 {
			return fmt.Errorf("audio.supported_formats: invalid extension %q", format)
		}
	}
	return nil
}
