package workflow

import (
	"context"

	"fwea/internal/job"
	"fwea/internal/logging"
	"fwea/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	Workers     int
	LastError   string
	LastJob     *job.Job
	QueueStats  map[job.Status]int
	StageHealth []stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastJob := m.lastJob
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read job stats", logging.Error(err))
	}

	summary := StatusSummary{
		Running:     running,
		Workers:     m.workers,
		QueueStats:  stats,
		StageHealth: m.HealthCheck(ctx),
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastJob != nil {
		copy := *lastJob
		summary.LastJob = &copy
	}
	return summary
}

// HealthCheck asks every registered stage for its readiness, in pipeline
// order. Unregistered stages are reported unhealthy.
func (m *Manager) HealthCheck(ctx context.Context) []stage.Health {
	m.mu.RLock()
	stages := append([]pipelineStage(nil), m.stages...)
	m.mu.RUnlock()

	health := make([]stage.Health, 0, len(stages))
	for _, stg := range stages {
		if stg.handler == nil {
			health = append(health, stage.Unhealthy(stg.name.String(), "no handler registered"))
			continue
		}
		h := stg.handler.HealthCheck(ctx)
		if h.Name == "" {
			h.Name = stg.name.String()
		}
		health = append(health, h)
	}
	return health
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(j *job.Job) {
	m.mu.Lock()
	if j != nil {
		copy := *j
		m.lastJob = &copy
	} else {
		m.lastJob = nil
	}
	m.mu.Unlock()
}
