package main

import (
	"testing"

	"fwea/internal/interval"
	"fwea/internal/job"
)

func TestFormatSeconds(t *testing.T) {
	cases := map[float64]string{
		0:      "0:00.000",
		45:     "0:45.000",
		61.5:   "1:01.500",
		3600.2: "60:00.200",
	}
	for in, want := range cases {
		if got := formatSeconds(in); got != want {
			t.Fatalf("formatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildQueueStatusRowsOrder(t *testing.T) {
	rows := buildQueueStatusRows(map[job.Status]int{
		job.StatusFailed:    2,
		job.StatusUploaded:  1,
		job.StatusCompleted: 0,
	})
	if len(rows) != 2 {
		t.Fatalf("expected zero counts dropped, got %v", rows)
	}
	if rows[0][0] != "uploaded" || rows[1][0] != "failed" {
		t.Fatalf("expected lifecycle order, got %v", rows)
	}
}

func TestBuildSpanRows(t *testing.T) {
	rows := buildSpanRows([]job.DetectedSpan{{
		Span:     interval.Span{Start: 30, End: 60},
		Language: "en",
		Words:    []string{"damn", "hell"},
		Severity: job.SeverityMild,
	}})
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %v", rows)
	}
	want := []string{"0:30.000", "1:00.000", "English", "mild", "damn, hell"}
	for i, cell := range want {
		if rows[0][i] != cell {
			t.Fatalf("cell %d = %q, want %q", i, rows[0][i], cell)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("unexpected short id %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("short ids should pass through, got %q", got)
	}
}
