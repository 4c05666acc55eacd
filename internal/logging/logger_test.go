package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fwea/internal/config"
	"fwea/internal/logging"
	"fwea/internal/services"
)

func TestNewTeesIntoLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	var console bytes.Buffer

	logger, err := logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Writer:   &console,
		FilePath: filepath.Join(cfg.Paths.LogDir, "fwea.log"),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello", logging.String("k", "v"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "fwea.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log file is not JSON: %v (%q)", err, data)
	}
	if entry["msg"] != "hello" || entry["k"] != "v" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if !strings.Contains(console.String(), "hello k=v") {
		t.Fatalf("unexpected console output %q", console.String())
	}
}

func TestNewFromConfigCreatesLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("debug message")
	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "fwea.log")); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")
	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")
	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleSubjectFromContext(t *testing.T) {
	var buf bytes.Buffer
	base, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithJobID(context.Background(), "0123456789abcdef")
	ctx = services.WithStage(ctx, "processing")
	ctx = services.WithWorker(ctx, "worker-2")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, "workflow"))
	logger.Info("stage completed")

	out := buf.String()
	for _, fragment := range []string{"INFO workflow:", "[worker-2 · job 01234567 (processing)]", "stage completed"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in %q", fragment, out)
		}
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "codec fallback", "redaction_fallback", logging.String(logging.FieldImpact, "audio left unmuted"))
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldEventType] != "redaction_fallback" {
		t.Fatalf("missing event type: %v", entry)
	}
	if entry[logging.FieldImpact] != "audio left unmuted" {
		t.Fatalf("impact overwritten: %v", entry)
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatalf("missing error hint: %v", entry)
	}
}

func TestFormatSubject(t *testing.T) {
	cases := []struct {
		worker, job, stage, want string
	}{
		{"", "", "", ""},
		{"worker-1", "", "", "worker-1"},
		{"", "abc", "preview", "job abc (preview)"},
		{"w", "", "preview", "w · preview"},
	}
	for _, tc := range cases {
		if got := logging.FormatSubject(tc.worker, tc.job, tc.stage); got != tc.want {
			t.Fatalf("FormatSubject(%q,%q,%q) = %q, want %q", tc.worker, tc.job, tc.stage, got, tc.want)
		}
	}
}
