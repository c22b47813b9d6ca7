package config

const (
	defaultDeviceASR        = "cuda:0"
	defaultLanguage         = "zh"
	defaultInitialPrompt    = "以下是普通话的句子。"
	defaultBeamSize         = 5
	defaultComputeType      = "float16"
	defaultOutputMode       = OutputModeSegments
	defaultOutputDir        = "output"
	defaultSampleRate       = 16000
	defaultLogDir           = "~/.local/share/scribe/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
	defaultNtfyTimeout      = 10
)

func defaultSupportedFormats() []string {
	return []string{".wav", ".mp3", ".m4a", ".flac", ".ogg"}
}

// Default returns a Config populated with repository defaults. Model.Dir has
// no default: it must come from the config file or SCRIBE_MODEL_DIR.
func Default() Config {
	return Config{
		Device: Device{
			ASR: defaultDeviceASR,
		},
		ASR: ASR{
			Language:      defaultLanguage,
			InitialPrompt: defaultInitialPrompt,
			BeamSize:      defaultBeamSize,
			ComputeType:   defaultComputeType,
			OutputMode:    defaultOutputMode,
		},
		Audio: Audio{
			OutputDir:        defaultOutputDir,
			SupportedFormats: defaultSupportedFormats(),
			SampleRate:       defaultSampleRate,
			Recursive:        true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			Dir:           defaultLogDir,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
	}
}
