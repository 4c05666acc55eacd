package detection

import (
	"context"
	"fmt"
	"os"
	"strings"

	"fwea/internal/config"
	"fwea/internal/language"
	"fwea/internal/services"
	"fwea/internal/services/openaistt"
	"fwea/internal/services/whisperx"
	"fwea/internal/transcript"
)

// Detector identifies spoken languages and timed segments in an audio file.
type Detector interface {
	Name() string
	Available(ctx context.Context) error
	Detect(ctx context.Context, audioPath string) (transcript.Result, error)
}

// New builds the detector selected by detection.backend.
func New(cfg *config.Config) (Detector, error) {
	switch cfg.Detection.Backend {
	case config.DetectionBackendWhisperX:
		svc := whisperx.NewService(whisperx.Config{
			Model:       cfg.Detection.WhisperX.Model,
			CUDAEnabled: cfg.Detection.WhisperX.CUDAEnabled,
			VADMethod:   cfg.Detection.WhisperX.VADMethod,
			HFToken:     os.Getenv("HF_TOKEN"),
		}, cfg.Audio.FFmpegBinary)
		return NewWhisperX(svc, cfg.Detection.WhisperX.CacheDir), nil
	case config.DetectionBackendOpenAI:
		client, err := openaistt.NewClient(openaistt.Config{
			APIKey:     cfg.Detection.OpenAI.APIKey,
			BaseURL:    cfg.Detection.OpenAI.BaseURL,
			Model:      cfg.Detection.OpenAI.Model,
			MaxRetries: 2,
		})
		if err != nil {
			return nil, err
		}
		return NewOpenAI(client), nil
	case config.DetectionBackendNone, "":
		return None{}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "detection", "init",
			fmt.Sprintf("unsupported detection backend %q", cfg.Detection.Backend), nil)
	}
}

// WhisperX adapts the WhisperX service.
type WhisperX struct {
	svc     *whisperx.Service
	workDir string
}

// NewWhisperX runs transcriptions in per-call directories under workDir.
func NewWhisperX(svc *whisperx.Service, workDir string) *WhisperX {
	return &WhisperX{svc: svc, workDir: workDir}
}

// Name implements Detector.
func (w *WhisperX) Name() string { return "whisperx/" + w.svc.Model() }

// Available implements Detector.
func (w *WhisperX) Available(context.Context) error { return w.svc.Available() }

// Detect implements Detector.
func (w *WhisperX) Detect(ctx context.Context, audioPath string) (transcript.Result, error) {
	if err := os.MkdirAll(w.workDir, 0o755); err != nil {
		return transcript.Result{}, services.Wrap(services.ErrConfiguration, "detection", "whisperx", "create work directory", err)
	}
	dir, err := os.MkdirTemp(w.workDir, "detect-*")
	if err != nil {
		return transcript.Result{}, services.Wrap(services.ErrConfiguration, "detection", "whisperx", "create work directory", err)
	}
	defer os.RemoveAll(dir)

	res, err := w.svc.Transcribe(ctx, audioPath, dir, "")
	if err != nil {
		return transcript.Result{}, err
	}
	out := transcript.Result{}
	if res.Language != "" {
		out.PrimaryLanguages = []string{res.Language}
	}
	for _, seg := range res.Segments {
		out.Segments = append(out.Segments, transcript.Segment{
			Start:      seg.Start,
			End:        seg.End,
			Text:       strings.TrimSpace(seg.Text),
			Language:   res.Language,
			Confidence: seg.Confidence(),
		})
	}
	if len(out.Segments) == 0 && len(out.PrimaryLanguages) == 0 {
		return transcript.Result{}, transcript.ErrEmpty
	}
	return out, nil
}

// OpenAI adapts the OpenAI transcription client.
type OpenAI struct {
	client *openaistt.Client
}

// NewOpenAI wraps client.
func NewOpenAI(client *openaistt.Client) *OpenAI {
	return &OpenAI{client: client}
}

// Name implements Detector.
func (o *OpenAI) Name() string { return "openai/" + o.client.Model() }

// Available implements Detector. Reachability is only known on first use.
func (o *OpenAI) Available(context.Context) error { return nil }

// Detect implements Detector.
func (o *OpenAI) Detect(ctx context.Context, audioPath string) (transcript.Result, error) {
	res, err := o.client.Transcribe(ctx, audioPath, "")
	if err != nil {
		return transcript.Result{}, err
	}
	lang := language.ToISO2(res.Language)
	out := transcript.Result{}
	if lang != "" {
		out.PrimaryLanguages = []string{lang}
	}
	for _, seg := range res.Segments {
		out.Segments = append(out.Segments, transcript.Segment{
			Start:      seg.Start,
			End:        seg.End,
			Text:       strings.TrimSpace(seg.Text),
			Language:   lang,
			Confidence: seg.Confidence(),
		})
	}
	if len(out.Segments) == 0 && len(out.PrimaryLanguages) == 0 {
		return transcript.Result{}, transcript.ErrEmpty
	}
	return out, nil
}

// None is the disabled backend; every call reports the detector unavailable
// so the stage uses its default-language fallback.
type None struct{}

// Name implements Detector.
func (None) Name() string { return "none" }

// Available implements Detector.
func (None) Available(context.Context) error {
	return services.Wrap(services.ErrDetectionUnavailable, "detection", "none", "language detection disabled", nil)
}

// Detect implements Detector.
func (None) Detect(context.Context, string) (transcript.Result, error) {
	return transcript.Result{}, services.Wrap(services.ErrDetectionUnavailable, "detection", "none", "language detection disabled", nil)
}
