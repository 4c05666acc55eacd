package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"fwea/internal/job"
	"fwea/internal/testsupport"
)

func TestProcessRunsPipelineInForeground(t *testing.T) {
	env := setupCLITestEnv(t)
	src := testsupport.WriteWAV(t, filepath.Join(env.baseDir, "media", "clip.wav"), 8000, 1, 4)

	out, _, err := runCLI(t, []string{"process", src, "--log-level", "error"}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v\n%s", err, out)
	}
	requireContains(t, out, "completed (100%)")
	requireContains(t, out, "language-detection")
	requireContains(t, out, "Warning")

	jobs, err := env.store.List(context.Background(), job.StatusCompleted)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected one completed job, got %d", len(jobs))
	}
	j := jobs[0]
	if j.OutputPath == "" || j.PreviewPath == "" {
		t.Fatalf("expected output and preview paths, got %#v", j)
	}
	if j.Worker == "" {
		t.Fatal("expected the foreground worker to be recorded")
	}
}

func TestProcessJSONWithoutPreview(t *testing.T) {
	env := setupCLITestEnv(t)
	src := testsupport.WriteWAV(t, filepath.Join(env.baseDir, "clip.wav"), 8000, 2, 2)

	out, _, err := runCLI(t, []string{"process", src, "--preview-seconds", "0", "--json", "--log-level", "error"}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	var decoded job.Job
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if decoded.Status != job.StatusCompleted {
		t.Fatalf("expected completed job, got %s", decoded.Status)
	}
	if decoded.PreviewPath != "" {
		t.Fatalf("expected no preview, got %s", decoded.PreviewPath)
	}
	if rec := decoded.LatestAttempt(job.StagePreview); rec == nil || rec.Status != job.StageSkipped {
		t.Fatalf("expected skipped preview stage, got %#v", rec)
	}
}

func TestProcessRejectsMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"process", filepath.Join(env.baseDir, "nope.wav")}, env.configPath); err == nil {
		t.Fatal("expected missing file to fail")
	}
	jobs, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected no job for a rejected file, got %d", len(jobs))
	}
}
