package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	pollInterval  = 250 * time.Millisecond
	maxLineLength = 1024 * 1024
)

// TailOptions controls a single Tail call. A negative Offset means "start
// from the last Limit matching lines"; otherwise reading resumes at Offset.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	Filter func(line string) bool
}

// TailResult holds the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from path. A missing file yields no lines and offset 0 so
// callers can keep polling until the daemon creates it.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return TailResult{}, nil
	}
	if err != nil {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	var result TailResult
	if opts.Offset < 0 {
		result.Lines, result.Offset, err = readLastLines(path, opts.Limit, opts.Filter)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			// Truncated or rotated underneath us.
			offset = 0
		}
		result.Lines, result.Offset, err = readForward(path, offset, opts.Filter)
	}
	if err != nil {
		return result, err
	}
	if opts.Follow && opts.Wait > 0 && len(result.Lines) == 0 {
		return waitForLines(ctx, path, result.Offset, opts.Wait, opts.Filter)
	}
	return result, nil
}

func readLastLines(path string, limit int, filter func(string) bool) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	end, err := scanLines(file, func(line string) {
		if filter != nil && !filter(line) {
			return
		}
		ring[next] = line
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := range lines {
		lines[i] = ring[(start+i)%limit]
	}
	return lines, end, nil
}

func readForward(path string, offset int64, filter func(string) bool) ([]string, int64, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	end, err := scanLines(file, func(line string) {
		if filter == nil || filter(line) {
			lines = append(lines, line)
		}
	})
	if err != nil {
		return nil, 0, err
	}
	return lines, end, nil
}

// scanLines feeds every complete line to fn and returns the offset just past
// the last byte read.
func scanLines(file *os.File, fn func(string)) (int64, error) {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("determine log offset: %w", err)
	}
	return end, nil
}

func waitForLines(ctx context.Context, path string, offset int64, wait time.Duration, filter func(string) bool) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		lines, next, err := readForward(path, result.Offset, filter)
		if err != nil {
			return result, err
		}
		result.Offset = next
		if len(lines) > 0 {
			result.Lines = lines
			return result, nil
		}
		if time.Now().After(deadline) {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}
