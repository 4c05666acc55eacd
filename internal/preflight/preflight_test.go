package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fwea/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryAccess_Unconfigured(t *testing.T) {
	if result := CheckDirectoryAccess("test", ""); result.Passed {
		t.Fatal("expected failure for empty path")
	}
}

func TestCheckDetector_NoneBackendPasses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckDetector(context.Background(), cfg)
	if !result.Passed || !result.Optional {
		t.Fatalf("expected optional pass for disabled detection, got %#v", result)
	}
	if !strings.Contains(result.Detail, cfg.Detection.DefaultLanguage) {
		t.Fatalf("expected default language in detail, got %q", result.Detail)
	}
}

func TestCheckDetector_UnknownBackendFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Detection.Backend = "carrier-pigeon"
	if result := CheckDetector(context.Background(), cfg); result.Passed {
		t.Fatalf("expected failure for unknown backend, got %#v", result)
	}
}

func TestCheckDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewJob(t, store, "/media/show.wav")

	result := CheckDatabase(context.Background(), store)
	if !result.Passed {
		t.Fatalf("expected healthy database, got %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "1 jobs") {
		t.Fatalf("expected job count in detail, got %q", result.Detail)
	}
	if CheckDatabase(context.Background(), nil).Passed {
		t.Fatal("expected failure without a store")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_StubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := RunAll(context.Background(), cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected every required check to pass, got %#v", failed)
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"Data directory", "Output directory", "Preview directory", "FFmpeg", "FFprobe"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q check in %v", want, names)
		}
	}
}

func TestRunAll_MissingBinariesFail(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMissingBinaries())
	cfg.Audio.NativeWAV = false

	failed := Failed(RunAll(context.Background(), cfg))
	if len(failed) != 2 {
		t.Fatalf("expected ffmpeg and ffprobe failures, got %#v", failed)
	}
}

func TestFailedSkipsOptional(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Optional: true},
		{Name: "c"},
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "c" {
		t.Fatalf("unexpected failures %#v", failed)
	}
}
