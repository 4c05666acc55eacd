package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fwea/internal/logging"
)

func mkJobDir(t *testing.T, root, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clip_clean.wav"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if age > 0 {
		stamp := time.Now().Add(-age)
		if err := os.Chtimes(dir, stamp, stamp); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
	return dir
}

func TestCleanOrphanedInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanOrphaned(context.Background(), dir, nil, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanOrphanedKeepsKnownAndRecent(t *testing.T) {
	root := t.TempDir()
	known := mkJobDir(t, root, "job-known", 2*time.Hour)
	orphan := mkJobDir(t, root, "job-orphan", 2*time.Hour)
	recent := mkJobDir(t, root, "job-recent", 0)
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray: %v", err)
	}

	result := CleanOrphaned(context.Background(), root, map[string]struct{}{"job-known": {}}, time.Hour, nil)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != orphan {
		t.Fatalf("expected only %s removed, got %v", orphan, result.Removed)
	}
	for _, dir := range []string{known, recent, filepath.Join(root, "stray.txt")} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("%s should still exist: %v", dir, err)
		}
	}
}

func TestCleanOrphanedZeroGrace(t *testing.T) {
	root := t.TempDir()
	mkJobDir(t, root, "fresh-orphan", 0)
	result := CleanOrphaned(context.Background(), root, map[string]struct{}{}, 0, nil)
	if len(result.Removed) != 1 {
		t.Fatalf("expected immediate removal, got %v", result.Removed)
	}
}

func TestSweepDirsMergesResults(t *testing.T) {
	out, preview := t.TempDir(), t.TempDir()
	mkJobDir(t, out, "gone", 2*time.Hour)
	mkJobDir(t, preview, "gone", 2*time.Hour)
	mkJobDir(t, preview, "kept", 2*time.Hour)

	result := SweepDirs(context.Background(), map[string]struct{}{"kept": {}}, DefaultGrace, nil, out, preview, "")
	if len(result.Removed) != 2 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %#v", result)
	}
}
