package whisperx

// Config captures runtime settings for WhisperX runs.
type Config struct {
	// Model is the WhisperX model name (e.g. "large-v3").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// Language is the ISO 639-1 code passed to WhisperX.
	Language string
	// HFToken authorises the pyannote diarization models.
	HFToken string
}

// WhisperX invocation constants.
const (
	DefaultModel    = "large-v3"
	DefaultLanguage = "en"
	CUDAIndexURL    = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL    = "https://pypi.org/simple"
	BatchSize       = "8"
	OutputFormat    = "json"
	CPUDevice       = "cpu"
	CUDADevice      = "cuda"
	CPUComputeType  = "int8"
)

// UVXCommand is the launcher used to run WhisperX in an isolated environment.
const UVXCommand = "uvx"
