package testsupport

import (
	"context"
	"testing"

	"fwea/internal/config"
	"fwea/internal/job"
	"fwea/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob enqueues sourcePath in the store and returns the uploaded job.
func NewJob(t testing.TB, store *queue.Store, sourcePath string, opts ...queue.JobOption) *job.Job {
	t.Helper()

	j, err := store.NewJob(context.Background(), sourcePath, opts...)
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return j
}
