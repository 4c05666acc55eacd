package stage

import (
	"context"

	"fwea/internal/job"
)

// ProgressFunc reports progress of the running stage in percent (0-100).
// It may be called from any goroutine.
type ProgressFunc func(percent float64, message string)

// Handler describes the contract the workflow manager needs from each stage.
//
// Execute must treat the job as read-only and return its changes through
// Outcome.Apply. The workflow applies the outcome only if the job was not
// cancelled while the stage was running, which is how results of in-flight
// external calls are discarded.
type Handler interface {
	Prepare(context.Context, *job.Job) error
	Execute(context.Context, *job.Job, ProgressFunc) (Outcome, error)
	HealthCheck(context.Context) Health
}

// Skipper is implemented by stages that can be skipped for some jobs.
type Skipper interface {
	ShouldSkip(*job.Job) (bool, string)
}

// Outcome carries a stage's results back to the workflow.
type Outcome struct {
	// Apply mutates the job with the stage's results. May be nil.
	Apply func(*job.Job)
	// Metadata is merged into the completed stage record.
	Metadata map[string]string
	// Warnings are appended to the job as non-fatal problems.
	Warnings []string
}

// Commit applies the outcome to j.
func (o Outcome) Commit(j *job.Job) {
	if o.Apply != nil {
		o.Apply(j)
	}
	for _, w := range o.Warnings {
		j.AddWarning(w)
	}
}

// NopProgress discards progress updates.
func NopProgress(float64, string) {}
