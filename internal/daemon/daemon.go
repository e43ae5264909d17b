package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"auditdesk/internal/api"
	"auditdesk/internal/config"
	"auditdesk/internal/logging"
)

// ErrAlreadyRunning is returned when another daemon holds the state lock.
var ErrAlreadyRunning = errors.New("another auditdesk daemon instance is already running")

// Sidecar is a blocking loop that runs alongside the HTTP listener until its
// context is cancelled.
type Sidecar func(ctx context.Context) error

// Daemon serves the public operations and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	svc       *api.Service
	sessionID string
	now       func() time.Time

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	mu        sync.Mutex
	running   atomic.Bool
	startedAt time.Time
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, svc *api.Service, logger *slog.Logger, sessionID string) (*Daemon, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("daemon requires config and service")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		svc:       svc,
		sessionID: sessionID,
		now:       time.Now,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Service returns the operation service shared by every transport.
func (d *Daemon) Service() *api.Service {
	return d.svc
}

// Start acquires the daemon lock and opens the HTTP listener.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	if err := d.api.listen(); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.startedAt = d.now()
	d.running.Store(true)
	d.logger.Info("auditdesk daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("bind", d.api.addr()),
		logging.String("decode_policy", string(d.svc.DecodePolicy())),
	)
	return nil
}

// Run starts the daemon unless Start already ran, serves HTTP plus every
// sidecar until ctx is cancelled or one of them fails, then stops.
func (d *Daemon) Run(ctx context.Context, sidecars ...Sidecar) error {
	if !d.running.Load() {
		if err := d.Start(ctx); err != nil {
			return err
		}
	}
	defer d.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.api.serve(gctx)
	})
	for _, run := range sidecars {
		if run == nil {
			continue
		}
		g.Go(func() error {
			return run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}

// Stop closes the HTTP listener and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if no daemon is running"),
			logging.String(logging.FieldImpact, "the next daemon start may report an existing instance"),
		)
	}
	d.running.Store(false)
	d.logger.Info("auditdesk daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"),
		logging.Any("stats", d.svc.Stats()),
	)
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// HTTPAddr returns the bound listener address, or "" when not listening.
func (d *Daemon) HTTPAddr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.api.addr()
}

// LockPath returns the single-instance lock file.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() api.StatusResponse {
	d.mu.Lock()
	startedAt := d.startedAt
	bind := d.api.addr()
	d.mu.Unlock()

	running := d.running.Load()
	status := api.StatusResponse{
		Running:      running,
		PID:          os.Getpid(),
		SessionID:    d.sessionID,
		Bind:         bind,
		SocketPath:   d.cfg.SocketPath(),
		LockFilePath: d.lockPath,
		LogPath:      d.cfg.DaemonLogPath(),
		DecodePolicy: string(d.svc.DecodePolicy()),
		Stats:        d.svc.Stats(),
	}
	if running {
		status.StartedAt = api.FormatTime(startedAt)
	}
	return status
}
