package whisperx

// Config selects the model and hardware for a run.
type Config struct {
	Model       string
	CUDAEnabled bool
	// VADMethod is "silero" (default) or "pyannote"; pyannote needs HFToken.
	VADMethod string
	HFToken   string
}

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "large-v3-turbo"

// Binaries resolved on PATH.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
)

const (
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"

	CPUDevice  = "cpu"
	CUDADevice = "cuda"
)

const (
	pypiIndexURL = "https://pypi.org/simple"
	cudaIndexURL = "https://download.pytorch.org/whl/cu128"
)

// decodeFlags are fixed for every run. Sentence segments with word alignment
// give the scanner per-word timings to mute.
var decodeFlags = [][2]string{
	{"--output_format", "json"},
	{"--segment_resolution", "sentence"},
	{"--batch_size", "4"},
	{"--chunk_size", "15"},
	{"--vad_onset", "0.08"},
	{"--vad_offset", "0.07"},
	{"--beam_size", "5"},
	{"--temperature", "0.0"},
}
