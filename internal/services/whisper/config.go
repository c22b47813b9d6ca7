package whisper

// Config captures the per-run engine settings. The model, device, and
// precision are fixed when the client is constructed and reused for every
// job in the run.
type Config struct {
	// ModelDir is the local CTranslate2 model directory.
	ModelDir string
	// Language is the recognition language code, or "auto" for detection.
	Language string
	// BeamSize is the decode search width.
	BeamSize int
	// ComputeType is the numeric precision actually granted ("float32",
	// "float16", or "int8").
	ComputeType string
	// Device is the granted compute device ("cpu" or "cuda").
	Device string
	// DeviceIndex selects the accelerator when Device is "cuda".
	DeviceIndex int
	// VADFilter drops silent regions before recognition.
	VADFilter bool
	// InitialPrompt steers the engine's output style.
	InitialPrompt string
	// WordTimestamps requests per-word alignment in the engine output.
	WordTimestamps bool
	// Preprocess converts inputs to mono PCM WAV before recognition.
	Preprocess bool
	// SampleRate is the preprocess target rate in Hz.
	SampleRate int
}

// Engine invocation constants.
const (
	EnginePackage = "whisper-ctranslate2"
	OutputFormat  = "json"
	CPUDevice     = "cpu"
	CUDADevice    = "cuda"
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
)
