package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fwea/internal/config"
	"fwea/internal/job"
	"fwea/internal/logging"
	"fwea/internal/notifications"
	"fwea/internal/queue"
)

// Manager coordinates job processing using the registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
	stageTimeout time.Duration
	retryDelay   time.Duration
	workers      int
	instance     string

	heartbeat *HeartbeatMonitor
	stages    []pipelineStage
	notifier  notifications.Service

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *job.Job
}

// NewManager constructs a new workflow manager. Stages must be registered
// with ConfigureStages before Start or Process.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.Workflow.Workers
	if workers <= 0 {
		workers = 1
	}
	pollInterval := cfg.PollInterval()
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow-manager"),
		pollInterval: pollInterval,
		stageTimeout: cfg.StageTimeout(),
		retryDelay:   cfg.StageRetryDelay(),
		workers:      workers,
		instance:     uuid.NewString()[:8],
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		notifier: notifications.NewService(cfg),
	}
}

// SetNotifier replaces the outcome notifier. Call before Start.
func (m *Manager) SetNotifier(svc notifications.Service) {
	if svc == nil {
		svc = notifications.NewService(nil)
	}
	m.notifier = svc
}
