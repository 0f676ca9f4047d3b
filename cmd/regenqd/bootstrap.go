package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"regenq/internal/config"
	"regenq/internal/daemon"
	"regenq/internal/logging"
	"regenq/internal/metrics"
	"regenq/internal/preflight"
	"regenq/internal/queue"
)

func bootstrap(configPath string) (*config.Config, *slog.Logger, error) {
	cfg, path, exists, err := config.Load(strings.TrimSpace(configPath))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewFromConfig(cfg, "regenqd")
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	if !exists {
		logger.Info("config file not found; using defaults", logging.String("path", path))
	}
	return cfg, logger, nil
}

// serve opens the store and runs the daemon until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}

	d, err := daemon.New(cfg, store, logger, metrics.New(nil))
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	for _, result := range preflight.RunLocal(cfg) {
		if result.Failed() {
			logging.WarnWithContext(logger, "preflight check failed", "daemon_preflight_failed",
				logging.String("check", result.Name),
				logging.String(logging.FieldErrorHint, result.Detail),
				logging.String(logging.FieldImpact, "writes to the queue database or logs may fail"),
			)
		}
	}

	if strings.TrimSpace(cfg.Paths.APIToken) == "" {
		logging.WarnWithContext(logger, "store server accepts requests without a token", "daemon_open_access",
			logging.String("bind", cfg.Paths.APIBind),
			logging.String(logging.FieldErrorHint, "set paths.api_token to require a bearer token"),
			logging.String(logging.FieldImpact, "any local process can edit the queue"),
		)
	}

	if err := d.Run(ctx); err != nil {
		return err
	}
	logger.Info("regenqd shutting down")
	return nil
}
