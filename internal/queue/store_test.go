package queue_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fwea/internal/interval"
	"fwea/internal/job"
	"fwea/internal/queue"
	"fwea/internal/services"
	"fwea/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	j := testsupport.NewJob(t, store, "/audio/interview.wav")
	if j.ID == "" {
		t.Fatal("expected job ID to be assigned")
	}
	if j.Status != job.StatusUploaded {
		t.Fatalf("expected uploaded status, got %s", j.Status)
	}
	if j.OriginalName != "interview.wav" {
		t.Fatalf("expected original name from path, got %q", j.OriginalName)
	}

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health: %#v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("missing columns: %v", health.MissingColumns)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
	if health.TotalJobs != 1 {
		t.Fatalf("expected 1 job, got %d", health.TotalJobs)
	}
	if health.DBPath != cfg.DatabasePath() {
		t.Fatalf("expected db path %q, got %q", cfg.DatabasePath(), health.DBPath)
	}
}

func TestReopenKeepsJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	j, err := store.NewJob(context.Background(), "/audio/a.mp3")
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	if _, err := reopened.Load(context.Background(), j.ID); err != nil {
		t.Fatalf("Load after reopen failed: %v", err)
	}
}

func TestNewJobAppliesConfigDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStageRetryLimit(2), testsupport.WithPreviewSeconds(12))
	cfg.Workflow.MaxJobRetries = 5
	store := testsupport.MustOpenStore(t, cfg)

	j := testsupport.NewJob(t, store, "/audio/a.mp3")
	if j.MaxRetries != 5 || j.StageRetryLimit != 2 || j.PreviewSeconds != 12 {
		t.Fatalf("unexpected defaults: max=%d stage=%d preview=%v", j.MaxRetries, j.StageRetryLimit, j.PreviewSeconds)
	}

	custom := testsupport.NewJob(t, store, "/audio/b.mp3",
		queue.WithOriginalName("upload.mp3"),
		queue.WithPreviewSeconds(0),
	)
	if custom.OriginalName != "upload.mp3" || custom.PreviewSeconds != 0 {
		t.Fatalf("options not applied: %#v", custom)
	}
}

func TestNewJobRequiresSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.NewJob(context.Background(), "  "); err == nil {
		t.Fatal("expected error when source path missing")
	}
}

func TestLoadMissingJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.Load(context.Background(), "does-not-exist")
	if !errors.Is(err, queue.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected services.ErrNotFound in chain, got %v", err)
	}
}

func TestSaveRoundTripsJobState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	j := testsupport.NewJob(t, store, "/audio/show.wav")
	if err := j.StartStage(job.StageUploaded, "Checking upload"); err != nil {
		t.Fatalf("StartStage failed: %v", err)
	}
	if err := j.CompleteStage(map[string]string{"size": "42"}); err != nil {
		t.Fatalf("CompleteStage failed: %v", err)
	}
	j.Analysis = job.AudioInfo{DurationSeconds: 120, SampleRate: 16000, Channels: 1, Format: "wav"}
	j.DetectedSpans = []job.DetectedSpan{{
		Span:       interval.Span{Start: 30, End: 60},
		Language:   "en",
		Words:      []string{"shit"},
		Confidence: 0.8,
		Severity:   job.SeverityMild,
	}}
	j.AddWarning("codec unavailable")
	if err := store.Save(ctx, j); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, j.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Progress != j.Progress || loaded.Progress == 0 {
		t.Fatalf("expected progress %d, got %d", j.Progress, loaded.Progress)
	}
	if len(loaded.Stages) != 1 || loaded.Stages[0].Name != job.StageUploaded || loaded.Stages[0].Metadata["size"] != "42" {
		t.Fatalf("unexpected stages: %#v", loaded.Stages)
	}
	if loaded.Analysis.DurationSeconds != 120 {
		t.Fatalf("unexpected analysis: %#v", loaded.Analysis)
	}
	if len(loaded.DetectedSpans) != 1 || loaded.DetectedSpans[0].Start != 30 || loaded.DetectedSpans[0].End != 60 {
		t.Fatalf("unexpected spans: %#v", loaded.DetectedSpans)
	}
	if len(loaded.Warnings) != 1 {
		t.Fatalf("expected warning to persist, got %v", loaded.Warnings)
	}
	if !loaded.CreatedAt.Equal(j.CreatedAt) {
		t.Fatalf("created_at drifted: %v vs %v", loaded.CreatedAt, j.CreatedAt)
	}
}

func TestClaimNextOrdersByCreation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"job-b", "job-a"} {
		j := job.New(id, "/audio/"+id+".wav")
		// job-a is older even though it is inserted second.
		j.CreatedAt = base.Add(time.Duration(1-i) * time.Minute)
		if err := store.Save(ctx, j); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	first, err := store.ClaimNext(ctx, "worker-1")
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if first == nil || first.ID != "job-a" || first.Worker != "worker-1" {
		t.Fatalf("expected job-a claimed by worker-1, got %#v", first)
	}
	if first.LastHeartbeat == nil {
		t.Fatal("expected claim to stamp a heartbeat")
	}

	second, err := store.ClaimNext(ctx, "worker-2")
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if second == nil || second.ID != "job-b" {
		t.Fatalf("expected job-b, got %#v", second)
	}

	none, err := store.ClaimNext(ctx, "worker-3")
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nothing left to claim, got %s", none.ID)
	}
}

func TestRequestCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	idle := testsupport.NewJob(t, store, "/audio/idle.wav")
	cancelled, immediate, err := store.RequestCancel(ctx, idle.ID)
	if err != nil {
		t.Fatalf("RequestCancel failed: %v", err)
	}
	if !immediate || cancelled.Status != job.StatusCancelled {
		t.Fatalf("expected idle job cancelled immediately, got %s (immediate=%v)", cancelled.Status, immediate)
	}
	if _, _, err := store.RequestCancel(ctx, idle.ID); !errors.Is(err, job.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for cancelled job, got %v", err)
	}

	busy := testsupport.NewJob(t, store, "/audio/busy.wav")
	claimed, err := store.ClaimNext(ctx, "worker-1")
	if err != nil || claimed == nil || claimed.ID != busy.ID {
		t.Fatalf("ClaimNext: %v %#v", err, claimed)
	}
	flagged, immediate, err := store.RequestCancel(ctx, busy.ID)
	if err != nil {
		t.Fatalf("RequestCancel failed: %v", err)
	}
	if immediate || flagged.Status != job.StatusUploaded {
		t.Fatalf("expected claimed job to stay uploaded, got %s (immediate=%v)", flagged.Status, immediate)
	}

	// The worker's stale copy must not clear the flag.
	claimed.StageDescription = "working"
	if err := store.Save(ctx, claimed); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	requested, err := store.CancelRequested(ctx, busy.ID)
	if err != nil {
		t.Fatalf("CancelRequested failed: %v", err)
	}
	if !requested {
		t.Fatal("expected cancel flag to survive a worker save")
	}
}

func TestReclaimStaleFailsAbandonedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	abandoned := testsupport.NewJob(t, store, "/audio/abandoned.wav")
	waiting := testsupport.NewJob(t, store, "/audio/waiting.wav")
	claimed, err := store.ClaimNext(ctx, "worker-1")
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if err := claimed.StartStage(job.StageUploaded, "Checking upload"); err != nil {
		t.Fatalf("StartStage failed: %v", err)
	}
	if err := store.Save(ctx, claimed); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ids, err := store.ReclaimStale(ctx, time.Now().Add(time.Minute), "worker vanished")
	if err != nil {
		t.Fatalf("ReclaimStale failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != abandoned.ID {
		t.Fatalf("expected only %s reclaimed, got %v", abandoned.ID, ids)
	}

	failed, err := store.Load(ctx, abandoned.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if failed.Status != job.StatusFailed || failed.ErrorStage != "uploaded" {
		t.Fatalf("expected failed in uploaded stage, got %s/%s", failed.Status, failed.ErrorStage)
	}
	if !strings.Contains(failed.Error, "worker vanished") {
		t.Fatalf("expected reason in error, got %q", failed.Error)
	}

	untouched, err := store.Load(ctx, waiting.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if untouched.Status != job.StatusUploaded {
		t.Fatalf("unclaimed job should not be reclaimed, got %s", untouched.Status)
	}

	retried, err := store.Retry(ctx, abandoned.ID)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if retried.Status != job.StatusUploaded || retried.Worker != "" || retried.RetryCount != 1 {
		t.Fatalf("unexpected retried job: %#v", retried)
	}
	reclaimed, err := store.ClaimNext(ctx, "worker-2")
	if err != nil || reclaimed == nil || reclaimed.ID != abandoned.ID {
		t.Fatalf("expected retried job to be claimable again: %v %#v", err, reclaimed)
	}
}

func TestSaveKeepsFinalizedStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewJob(t, store, "/audio/slow.wav")
	claimed, err := store.ClaimNext(ctx, "worker-1")
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if _, err := store.ReclaimStale(ctx, time.Now().Add(time.Minute), "worker vanished"); err != nil {
		t.Fatalf("ReclaimStale failed: %v", err)
	}

	// The slow worker's copy is still mid-stage.
	if err := claimed.StartStage(job.StageUploaded, "Checking upload"); err != nil {
		t.Fatalf("StartStage failed: %v", err)
	}
	if err := store.Save(ctx, claimed); !errors.Is(err, queue.ErrJobFinalized) {
		t.Fatalf("expected ErrJobFinalized, got %v", err)
	}
	stored, err := store.Load(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if stored.Status != job.StatusFailed || len(stored.Stages) != 0 {
		t.Fatalf("failed job was overwritten: %s with %d stages", stored.Status, len(stored.Stages))
	}

	// An explicit retry bumps the retry count and may be saved again.
	retried, err := store.Retry(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	retried.StageDescription = "queued again"
	if err := store.Save(ctx, retried); err != nil {
		t.Fatalf("Save after retry failed: %v", err)
	}
}

func TestRetryRequiresFailedJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	j := testsupport.NewJob(t, store, "/audio/a.wav")
	if _, err := store.Retry(context.Background(), j.ID); !errors.Is(err, job.ErrNotRetryable) {
		t.Fatalf("expected ErrNotRetryable, got %v", err)
	}
	stored, err := store.Load(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if stored.RetryCount != 0 {
		t.Fatalf("failed update must not be written, retry count %d", stored.RetryCount)
	}
}

func TestRetryFailedHonoursBudget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	fresh := testsupport.NewJob(t, store, "/audio/fresh.wav")
	spent := testsupport.NewJob(t, store, "/audio/spent.wav")
	for _, id := range []string{fresh.ID, spent.ID} {
		if _, err := store.Update(ctx, id, func(j *job.Job) error {
			if j.ID == spent.ID {
				j.RetryCount = j.MaxRetries
			}
			return j.Fail(errors.New("boom"))
		}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 retried job, got %d", count)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[job.StatusUploaded] != 1 || stats[job.StatusFailed] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestMetricsAggregatesWindow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	seed := []struct {
		id      string
		status  job.Status
		age     time.Duration
		elapsed time.Duration
		size    int64
	}{
		{"done-a", job.StatusCompleted, time.Hour, 10 * time.Second, 1000},
		{"done-b", job.StatusCompleted, 30 * time.Minute, 30 * time.Second, 3000},
		{"broken", job.StatusFailed, 10 * time.Minute, 0, 2000},
		{"stopped", job.StatusCancelled, 5 * time.Minute, 0, 0},
		{"ancient", job.StatusCompleted, 48 * time.Hour, 100 * time.Second, 9000},
	}
	for _, sd := range seed {
		j := job.New(sd.id, "/audio/"+sd.id+".wav")
		j.Status = sd.status
		j.FileSize = sd.size
		j.CreatedAt = now.Add(-sd.age)
		j.UpdatedAt = j.CreatedAt
		if sd.elapsed > 0 {
			done := j.CreatedAt.Add(sd.elapsed)
			j.CompletedAt = &done
		}
		if err := store.Save(ctx, j); err != nil {
			t.Fatalf("Save %s failed: %v", sd.id, err)
		}
	}

	m, err := store.Metrics(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	if m.Summary.Total != 4 || m.Summary.Completed != 2 || m.Summary.Failed != 1 || m.Summary.Cancelled != 1 {
		t.Fatalf("unexpected counts: %#v", m)
	}
	if m.SuccessRate < 0.66 || m.SuccessRate > 0.67 {
		t.Fatalf("expected success rate 2/3, got %f", m.SuccessRate)
	}
	if m.AvgProcessing != 20*time.Second || m.MinProcessing != 10*time.Second || m.MaxProcessing != 30*time.Second {
		t.Fatalf("unexpected processing times: avg=%s min=%s max=%s", m.AvgProcessing, m.MinProcessing, m.MaxProcessing)
	}
	if m.TotalBytes != 6000 || m.AvgBytes != 2000 {
		t.Fatalf("unexpected sizes: total=%d avg=%d", m.TotalBytes, m.AvgBytes)
	}

	all, err := store.Metrics(ctx, time.Time{})
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	if all.Summary.Total != 5 || all.MaxProcessing != 100*time.Second || all.TotalBytes != 15000 {
		t.Fatalf("unexpected unbounded metrics: %#v", all)
	}

	empty, err := store.Metrics(ctx, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	if empty.Summary.Total != 0 || empty.SuccessRate != 0 || empty.AvgProcessing != 0 || empty.AvgBytes != 0 {
		t.Fatalf("expected empty window, got %#v", empty)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewJob(t, store, "/audio/a.wav")
	testsupport.NewJob(t, store, "/audio/b.wav")
	if _, _, err := store.RequestCancel(ctx, a.ID); err != nil {
		t.Fatalf("RequestCancel failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}
	cancelled, err := store.List(ctx, job.StatusCancelled)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(cancelled) != 1 || cancelled[0].ID != a.ID {
		t.Fatalf("unexpected cancelled jobs: %#v", cancelled)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if summary := queue.Summarize(stats); summary.Total != 2 || summary.Waiting != 1 || summary.Cancelled != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}

func TestClearOnlyRemovesTerminalJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewJob(t, store, "/audio/a.wav")
	testsupport.NewJob(t, store, "/audio/b.wav")
	if _, _, err := store.RequestCancel(ctx, a.ID); err != nil {
		t.Fatalf("RequestCancel failed: %v", err)
	}

	if _, err := store.Clear(ctx, job.StatusUploaded); err == nil {
		t.Fatal("expected clear of uploaded jobs to be refused")
	}
	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 job cleared, got %d", removed)
	}
	if _, err := store.Load(ctx, a.ID); !errors.Is(err, queue.ErrJobNotFound) {
		t.Fatalf("expected cleared job gone, got %v", err)
	}
}

func TestCleanExpiredRemovesFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	old := testsupport.NewJob(t, store, "/audio/old.wav")
	recent := testsupport.NewJob(t, store, "/audio/recent.wav")

	outputPath := filepath.Join(cfg.Paths.OutputDir, old.ID, "old_clean.wav")
	previewPath := filepath.Join(cfg.Paths.PreviewDir, old.ID, "old_preview.wav")
	testsupport.WriteFile(t, outputPath, 16)
	testsupport.WriteFile(t, previewPath, 16)

	for _, id := range []string{old.ID, recent.ID} {
		if _, err := store.Update(ctx, id, func(j *job.Job) error {
			if j.ID == old.ID {
				j.OutputPath = outputPath
				j.PreviewPath = previewPath
			}
			return j.Fail(errors.New("boom"))
		}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	cutoff := time.Now().Add(time.Hour)
	// A cutoff in the past expires nothing.
	result, err := store.CleanExpired(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CleanExpired failed: %v", err)
	}
	if result.Jobs != 0 {
		t.Fatalf("nothing should be expired yet, got %#v", result)
	}

	if _, err := store.Remove(ctx, recent.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	result, err = store.CleanExpired(ctx, cutoff)
	if err != nil {
		t.Fatalf("CleanExpired failed: %v", err)
	}
	if result.Jobs != 1 || result.Files != 2 {
		t.Fatalf("unexpected cleanup result: %#v", result)
	}
	for _, path := range []string{outputPath, previewPath, filepath.Dir(outputPath)} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", path, err)
		}
	}
}

func TestResolveByPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	j := testsupport.NewJob(t, store, "/audio/a.wav")

	found, err := store.Resolve(ctx, j.ID[:8])
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if found.ID != j.ID {
		t.Fatalf("expected %s, got %s", j.ID, found.ID)
	}
	if _, err := store.Resolve(ctx, "abc"); !errors.Is(err, queue.ErrJobNotFound) {
		t.Fatalf("short unknown prefix should be not found, got %v", err)
	}
}

func TestIDsListsEveryJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewJob(t, store, "/audio/a.wav")
	b := testsupport.NewJob(t, store, "/audio/b.wav")

	ids, err := store.IDs(ctx)
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	for _, id := range []string{a.ID, b.ID} {
		if _, ok := ids[id]; !ok {
			t.Fatalf("missing id %s", id)
		}
	}
}
