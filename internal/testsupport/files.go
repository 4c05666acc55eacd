package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and its parent directories) holding size bytes of
// filler. Useful for non-audio inputs and fake outputs that only need to
// exist. A size <= 0 writes one byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{'x'}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
