// Package fileutil holds the file helpers shared by the redaction stages:
// verified copies for the unmuted fallback and atomic publication of codec
// output so a half-written file never appears at its final path.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CopyFileVerified copies src to dst, then re-reads dst and compares its
// size and SHA-256 against what was read from src. dst is removed on any
// mismatch.
func CopyFileVerified(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	srcHash := sha256.New()
	written, copyErr := io.Copy(out, io.TeeReader(in, srcHash))
	if closeErr := out.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(dst)
		return copyErr
	}

	dstSize, dstSum, err := hashFile(dst)
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("verify copy: %w", err)
	}
	if dstSize != written {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: read %d bytes, destination has %d", written, dstSize)
	}
	if !bytes.Equal(srcHash.Sum(nil), dstSum) {
		_ = os.Remove(dst)
		return errors.New("copy hash mismatch: destination differs from source")
	}
	return nil
}

func hashFile(path string) (int64, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, nil, err
	}
	return n, h.Sum(nil), nil
}

// WriteAtomic creates dst's directory, lets write fill a temporary sibling
// that keeps dst's extension (ffmpeg picks the muxer from it), then renames
// the sibling onto dst. The temporary file is removed on any failure.
func WriteAtomic(dst string, write func(tmp string) error) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	ext := filepath.Ext(dst)
	base := strings.TrimSuffix(filepath.Base(dst), ext)
	f, err := os.CreateTemp(dir, "."+base+".*.partial"+ext)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	_ = f.Close()

	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish %s: %w", filepath.Base(dst), err)
	}
	return nil
}

// SameFile reports whether a and b resolve to the same file on disk.
func SameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
