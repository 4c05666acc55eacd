package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"fwea/internal/config"
	"fwea/internal/daemon"
	"fwea/internal/logging"
	"fwea/internal/preflight"
	"fwea/internal/queue"
	"fwea/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Workers overrides workflow.workers when positive.
	Workers int
}

// Run starts the fwea daemon and blocks until the context is cancelled or
// the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if opts.Workers > 0 {
		cfg.Workflow.Workers = opts.Workers
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		FilePath:    cfg.LogPath(),
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.DataDir, "fwea.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()

	stages, err := workflow.NewStageSet(cfg, logger)
	if err != nil {
		return fmt.Errorf("build stages: %w", err)
	}
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(stages)

	d, err := daemon.New(cfg, store, logger, mgr)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("%w (lock %s)", err, cfg.LockPath())
		}
		return err
	}

	<-signalCtx.Done()
	logger.Info("fwea daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("detection_backend", cfg.Detection.Backend),
		logging.String("default_language", cfg.Detection.DefaultLanguage),
		logging.Bool("native_wav", cfg.Audio.NativeWAV),
		logging.Int("workers", cfg.Workflow.Workers),
	}
	for _, status := range preflight.CheckSystemDeps(cfg) {
		attrs = append(attrs,
			logging.Bool(status.Name+"_available", status.Available),
			logging.String(status.Name+"_binary", status.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
