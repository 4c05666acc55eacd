package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fwea/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fwea.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 6 {
		t.Fatalf("expected offset at end of file, got %d", result.Offset)
	}
}

func TestTailFewerLinesThanLimit(t *testing.T) {
	path := writeLog(t, "only\n")
	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "only" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "none.log"), logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("expected empty result, got %#v", result)
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := writeLog(t, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return
		}
		defer f.Close()
		_, _ = f.WriteString("next\n")
	}()

	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: first.Offset, Follow: true, Wait: 3 * time.Second})
	if err != nil {
		t.Fatalf("tail follow: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "next" {
		t.Fatalf("unexpected follow lines: %#v", result.Lines)
	}
}

func TestTailResetsAfterTruncation(t *testing.T) {
	path := writeLog(t, "fresh\n")
	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 1000})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "fresh" {
		t.Fatalf("expected re-read from start, got %#v", result.Lines)
	}
}

func TestTailWithQuery(t *testing.T) {
	lines := []string{
		`{"level":"INFO","msg":"stage started","job_id":"abcd1234","stage":"processing","event_type":"stage_start"}`,
		`{"level":"WARN","msg":"retrying","job_id":"abcd1234","stage":"language-detection","event_type":"stage_retry"}`,
		`{"level":"INFO","msg":"stage started","job_id":"ffff0000","stage":"processing","event_type":"stage_start"}`,
		`plain text line`,
		`{"level":"ERROR","msg":"failed","job_id":"abcd1234","event_type":"stage_failure"}`,
	}
	path := writeLog(t, strings.Join(lines, "\n")+"\n")

	cases := []struct {
		name  string
		query logs.Query
		want  int
	}{
		{"empty", logs.Query{}, 5},
		{"job prefix", logs.Query{JobID: "abcd"}, 3},
		{"stage", logs.Query{Stage: "processing"}, 2},
		{"event", logs.Query{Event: "stage_retry"}, 1},
		{"min level", logs.Query{MinLevel: "warn"}, 2},
		{"combined", logs.Query{JobID: "abcd", MinLevel: "error"}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 10, Filter: tc.query.Filter()})
			if err != nil {
				t.Fatalf("tail: %v", err)
			}
			if len(result.Lines) != tc.want {
				t.Fatalf("expected %d lines, got %d: %#v", tc.want, len(result.Lines), result.Lines)
			}
		})
	}
}
