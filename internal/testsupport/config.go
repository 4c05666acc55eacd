package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"fwea/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Detection is disabled and stage retries are immediate so workflow tests
// never wait on a backend or a retry delay.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.PreviewDir = filepath.Join(base, "preview")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Detection.Backend = config.DetectionBackendNone
	cfgVal.Detection.WhisperX.CacheDir = filepath.Join(base, "whisperx")
	cfgVal.Workflow.StageRetryDelay = 0
	cfgVal.Workflow.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithWorkers overrides the worker pool size.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.Workers = n
	}
}

// WithStageRetryLimit overrides the per-stage retry budget.
func WithStageRetryLimit(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.StageRetryLimit = n
	}
}

// WithPreviewSeconds overrides the preview clip length; 0 disables previews.
func WithPreviewSeconds(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Audio.PreviewSeconds = seconds
	}
}

// WithNtfyTopic points notifications at topic, usually an httptest server.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// WithMissingBinaries points the codec at binaries that do not exist.
func WithMissingBinaries() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Audio.FFmpegBinary = filepath.Join(b.baseDir, "missing", "ffmpeg")
		b.cfg.Audio.FFprobeBinary = filepath.Join(b.baseDir, "missing", "ffprobe")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
