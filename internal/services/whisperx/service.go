package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	langpkg "fwea/internal/language"
	"fwea/internal/services"
)

// CommandRunner executes an external command. Tests replace it to avoid
// invoking ffmpeg or uvx.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	ffmpegBinary  string
	commandRunner CommandRunner
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, ffmpegBinary string) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Service{
		cfg:          cfg,
		ffmpegBinary: ffmpegBinary,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

// Available checks that uvx and ffmpeg resolve on PATH.
func (s *Service) Available() error {
	if s.commandRunner != nil {
		return nil
	}
	for _, bin := range []string{UVXCommand, s.ffmpegBinary} {
		if _, err := exec.LookPath(bin); err != nil {
			return services.Wrap(services.ErrDetectionUnavailable, "whisperx", "lookup", fmt.Sprintf("%s not found", bin), err)
		}
	}
	return nil
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	// Force legacy behavior so bundled WhisperX binaries can load checkpoints safely.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Result is a parsed WhisperX transcript.
type Result struct {
	// Language is the ISO 639-1 code WhisperX detected (or was told to use).
	Language string
	Segments []Segment
	JSONPath string
}

// Transcribe normalises source into workDir and transcribes it. An empty
// language lets WhisperX detect it from the first 30 seconds.
func (s *Service) Transcribe(ctx context.Context, source, workDir, language string) (Result, error) {
	if strings.TrimSpace(source) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "whisperx", "transcribe", "source path required", nil)
	}
	if workDir == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "whisperx", "transcribe", "work directory required", nil)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "whisperx", "transcribe", "ensure work directory", err)
	}

	wav := filepath.Join(workDir, "whisperx-input.wav")
	if err := s.run(ctx, s.ffmpegBinary, buildExtractArgs(source, wav, 0)...); err != nil {
		return Result{}, classify(ctx, "extract", err)
	}
	if err := s.run(ctx, UVXCommand, s.buildArgs(wav, workDir, language)...); err != nil {
		return Result{}, classify(ctx, "transcribe", err)
	}

	jsonPath := filepath.Join(workDir, "whisperx-input.json")
	payload, err := loadPayload(jsonPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrDetectionUnavailable, "whisperx", "parse", "unreadable WhisperX output", err)
	}
	lang := langpkg.ToISO2(payload.Language)
	if lang == "" {
		lang = langpkg.ToISO2(language)
	}
	return Result{Language: lang, Segments: payload.Segments, JSONPath: jsonPath}, nil
}

func classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrDetectionTimeout, "whisperx", op, "WhisperX timed out", ctx.Err())
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("whisperx %s: %w", op, ctx.Err())
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return services.Wrap(services.ErrDetectionUnavailable, "whisperx", op, "WhisperX tooling not installed", err)
	default:
		return services.Wrap(services.ErrDetectionUnavailable, "whisperx", op, "WhisperX failed", err)
	}
}

// buildArgs constructs the uvx invocation for one transcription.
func (s *Service) buildArgs(source, outputDir, language string) []string {
	args := []string{"--index-url", pypiIndexURL}
	device := []string{"--device", CPUDevice, "--compute_type", "float32"}
	if s.cfg.CUDAEnabled {
		args = []string{"--index-url", cudaIndexURL, "--extra-index-url", pypiIndexURL}
		device = []string{"--device", CUDADevice}
	}

	args = append(args, "whisperx", source, "--model", s.Model(), "--output_dir", outputDir)
	for _, flag := range decodeFlags {
		args = append(args, flag[0], flag[1])
	}

	vad := s.cfg.VADMethod
	if vad == "" {
		vad = VADMethodSilero
	}
	args = append(args, "--vad_method", vad)
	if vad == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}
	if lang := langpkg.ToISO2(language); lang != "" {
		args = append(args, "--language", lang)
	}
	return append(args, device...)
}

// Word represents a single word with timing from WhisperX output.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score float64 `json:"score"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

// Confidence averages the word alignment scores, or 0 when none exist.
func (s Segment) Confidence() float64 {
	if len(s.Words) == 0 {
		return 0
	}
	total := 0.0
	for _, w := range s.Words {
		total += w.Score
	}
	return total / float64(len(s.Words))
}

// whisperXPayload is the JSON structure from WhisperX output.
type whisperXPayload struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

func loadPayload(jsonPath string) (whisperXPayload, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return whisperXPayload{}, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return whisperXPayload{}, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload, nil
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	payload, err := loadPayload(jsonPath)
	if err != nil {
		return nil, err
	}
	return payload.Segments, nil
}
