package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"auditdesk/internal/api"
	"auditdesk/internal/config"
	"auditdesk/internal/daemon"
	"auditdesk/internal/daemonctl"
	"auditdesk/internal/ipc"
	"auditdesk/internal/logging"
	"auditdesk/internal/preflight"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel    string
	Development bool
	// SocketPath overrides the configured JSON-RPC socket when set.
	SocketPath string
}

// Run starts the auditdesk daemon and blocks until it is signalled, asked to
// stop over IPC, or fails.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if socket := strings.TrimSpace(opts.SocketPath); socket != "" {
		override := *cfg
		override.API.Socket = socket
		cfg = &override
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logPath := cfg.DaemonLogPath()
	archived, rotateErr := logging.RotateSessionLog(logPath, time.Now())
	if rotateErr != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to rotate %s: %v\n", logPath, rotateErr)
	}

	sessionID := uuid.NewString()
	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout"},
		FilePaths:   []string{logPath},
		SessionID:   sessionID,
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if archived != "" {
		logger.Debug("previous session log archived", logging.String("archive", archived))
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{
			Dir:     filepath.Dir(logPath),
			Pattern: "auditdesk-*.log",
			Exclude: []string{logPath},
		},
	)

	if failed := preflight.Failed(preflight.DirectoryChecks(cfg)); len(failed) > 0 {
		for _, r := range failed {
			logging.ErrorWithContext(logger, "directory check failed", "preflight_failed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldErrorHint, "fix directory permissions or paths in the config file"),
			)
		}
		return fmt.Errorf("preflight: %s: %s", failed[0].Name, failed[0].Detail)
	}

	svc, err := api.NewService(cfg, logger)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	d, err := daemon.New(cfg, svc, logger, sessionID)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// The lock must be held before the socket is replaced so a second
	// instance cannot unlink a live daemon's socket.
	if err := d.Start(signalCtx); err != nil {
		return err
	}

	pidPath := daemonctl.PIDPath(cfg)
	if err := daemonctl.WritePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	socketPath := cfg.SocketPath()
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}

	logStartup(logger, cfg, socketPath, d)
	err = d.Run(signalCtx, ipcServer.Run)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Info("auditdesk daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
		return nil
	case errors.Is(err, ipc.ErrShutdownRequested):
		logger.Info("auditdesk daemon stopping on request", logging.String(logging.FieldEventType, "daemon_stop_requested"))
		return nil
	default:
		logging.ErrorWithContext(logger, "daemon exited with error", "daemon_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "reports and tail reads are unavailable until restart"),
		)
		return err
	}
}

func logStartup(logger *slog.Logger, cfg *config.Config, socketPath string, d *daemon.Daemon) {
	logger.Info("runtime snapshot",
		logging.String(logging.FieldEventType, "runtime_snapshot"),
		logging.String("socket", socketPath),
		logging.String("http", d.HTTPAddr()),
		logging.Bool("api_token_set", strings.TrimSpace(cfg.API.Token) != ""),
		logging.String("report_dir", cfg.Paths.ReportDir),
		logging.Bool("custom_font", strings.TrimSpace(cfg.Report.FontFile) != ""),
		logging.String("tail_decode", cfg.Tail.Decode),
		logging.Bool("notifications", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	)
}
