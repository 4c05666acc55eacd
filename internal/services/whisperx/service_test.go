package whisperx

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"fwea/internal/services"
)

const samplePayload = `{
  "language": "es",
  "segments": [
    {"text": " hola a todos ", "start": 0.5, "end": 2.25, "words": [{"word": "hola", "start": 0.5, "end": 0.9, "score": 0.9}, {"word": "todos", "start": 1.2, "end": 2.2, "score": 0.7}]},
    {"text": "qué mierda", "start": 2.5, "end": 4.0, "words": []}
  ]
}`

func argValue(args []string, flag string) string {
	if i := slices.Index(args, flag); i >= 0 && i+1 < len(args) {
		return args[i+1]
	}
	return ""
}

func TestTranscribeParsesOutput(t *testing.T) {
	svc := NewService(Config{Model: "small"}, "")
	var calls []string
	var uvxArgs []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		calls = append(calls, name)
		if name == UVXCommand {
			uvxArgs = args
			dir := argValue(args, "--output_dir")
			return os.WriteFile(filepath.Join(dir, "whisperx-input.json"), []byte(samplePayload), 0o644)
		}
		return nil
	})

	res, err := svc.Transcribe(context.Background(), "/music/in.mp3", t.TempDir(), "")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !slices.Equal(calls, []string{FFmpegCommand, UVXCommand}) {
		t.Fatalf("unexpected command order %v", calls)
	}
	if argValue(uvxArgs, "--model") != "small" || argValue(uvxArgs, "--output_format") != "json" {
		t.Fatalf("unexpected args %v", uvxArgs)
	}
	if slices.Contains(uvxArgs, "--language") {
		t.Fatalf("language must be auto-detected when no hint is given: %v", uvxArgs)
	}
	if res.Language != "es" || len(res.Segments) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := res.Segments[0].Confidence(); got < 0.79 || got > 0.81 {
		t.Fatalf("unexpected confidence %v", got)
	}
	if res.Segments[1].Confidence() != 0 {
		t.Fatal("segments without words should have zero confidence")
	}
}

func TestTranscribePassesLanguageHint(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf"}, "ffmpeg-custom")
	var uvxArgs, ffArgs []string
	var ffName string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name == UVXCommand {
			uvxArgs = args
			return os.WriteFile(filepath.Join(argValue(args, "--output_dir"), "whisperx-input.json"), []byte(`{"segments":[]}`), 0o644)
		}
		ffName, ffArgs = name, args
		return nil
	})
	res, err := svc.Transcribe(context.Background(), "/music/in.flac", t.TempDir(), "French")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if ffName != "ffmpeg-custom" || argValue(ffArgs, "-ar") != "16000" {
		t.Fatalf("unexpected ffmpeg call %s %v", ffName, ffArgs)
	}
	if argValue(uvxArgs, "--language") != "fr" || argValue(uvxArgs, "--device") != CUDADevice || argValue(uvxArgs, "--hf_token") != "hf" {
		t.Fatalf("unexpected args %v", uvxArgs)
	}
	if res.Language != "fr" {
		t.Fatalf("expected hint language fallback, got %q", res.Language)
	}
}

func TestTranscribeClassifiesFailures(t *testing.T) {
	svc := NewService(Config{}, "")
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return &exec.Error{Name: "uvx", Err: exec.ErrNotFound}
	})
	_, err := svc.Transcribe(context.Background(), "/a.wav", t.TempDir(), "")
	if !errors.Is(err, services.ErrDetectionUnavailable) {
		t.Fatalf("expected detection unavailable, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()
	svc.WithCommandRunner(func(ctx context.Context, _ string, _ ...string) error { return ctx.Err() })
	_, err = svc.Transcribe(ctx, "/a.wav", t.TempDir(), "")
	if !errors.Is(err, services.ErrDetectionTimeout) {
		t.Fatalf("expected detection timeout, got %v", err)
	}
}

func TestTranscribeRejectsMissingOutput(t *testing.T) {
	svc := NewService(Config{}, "")
	svc.WithCommandRunner(func(context.Context, string, ...string) error { return nil })
	_, err := svc.Transcribe(context.Background(), "/a.wav", t.TempDir(), "")
	if !errors.Is(err, services.ErrDetectionUnavailable) {
		t.Fatalf("expected detection unavailable, got %v", err)
	}
}
