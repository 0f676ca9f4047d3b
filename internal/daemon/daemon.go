package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"regenq/internal/config"
	"regenq/internal/logging"
	"regenq/internal/metrics"
	"regenq/internal/queue"
)

// ErrAlreadyRunning is returned when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another regenqd instance is already running")

// Daemon owns the store, the lock, and the API server lifecycle.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *queue.Store
	metrics *metrics.Metrics

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	api     *apiServer
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	Counts       map[queue.Status]int
	Health       queue.DatabaseHealth
}

// New constructs a daemon. A nil metrics gets a private registry.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, m *metrics.Metrics) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if m == nil {
		m = metrics.New(nil)
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		metrics:  m,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	d.running.Store(true)
	d.logger.Info("regenqd started",
		logging.String("lock", d.lockPath),
		logging.String("db", d.store.Path()),
	)
	return nil
}

// Stop releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no regenqd is running"),
			logging.String(logging.FieldImpact, "the next start may report another instance"),
		)
	}
	d.running.Store(false)
	d.logger.Info("regenqd stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Run starts the daemon and serves the API until ctx is cancelled. The
// listener and the shutdown watcher run in one errgroup so a listen failure
// also ends Run.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	defer d.Stop()

	if err := d.api.listen(); err != nil {
		return err
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(d.api.serve)
	group.Go(func() error {
		<-groupCtx.Done()
		return d.api.shutdown()
	})
	if err := group.Wait(); err != nil {
		return err
	}
	return nil
}

// Addr returns the bound API address once Run is listening.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Handler exposes the API routes, mainly for tests.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// Status returns the current daemon status. Store failures are reported in
// the health section rather than as an error.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
	health, err := d.store.CheckHealth(ctx)
	if err != nil && health.Error == "" {
		health.Error = err.Error()
	}
	status.Health = health
	counts, err := d.store.Stats(ctx)
	if err != nil {
		if status.Health.Error == "" {
			status.Health.Error = err.Error()
		}
		counts = map[queue.Status]int{}
	}
	status.Counts = counts
	return status
}
