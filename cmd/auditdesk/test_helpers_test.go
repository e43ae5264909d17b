package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"auditdesk/internal/api"
	"auditdesk/internal/config"
	"auditdesk/internal/daemon"
	"auditdesk/internal/ipc"
	"auditdesk/internal/logging"
	"auditdesk/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	baseDir    string
}

// setupCLITestEnv writes a config file for a temp environment. With
// withDaemon it also runs a daemon and IPC server in-process.
func setupCLITestEnv(t *testing.T, withDaemon bool) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("AUDITDESK_API_TOKEN", "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	env := &cliTestEnv{
		cfg:        cfg,
		socketPath: cfg.SocketPath(),
		configPath: configPath,
		baseDir:    base,
	}
	if !withDaemon {
		return env
	}

	logger := logging.NewNop()
	svc, err := api.NewService(cfg, logger)
	if err != nil {
		t.Fatalf("api.NewService: %v", err)
	}
	d, err := daemon.New(cfg, svc, logger, "cli-test")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon start: %v", err)
	}
	srv, err := ipc.NewServer(ctx, env.socketPath, d, logger)
	if err != nil {
		cancel()
		_ = d.Close()
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env.daemon = d
	env.server = srv
	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = d.Close()
	})
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWith(t, context.Background(), nil, args, socket, configPath)
}

func runCLIWith(t *testing.T, ctx context.Context, stdin io.Reader, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := executeCLI(ctx, stdin, &stdout, &stderr, args, socket, configPath)
	return stdout.String(), stderr.String(), err
}

func executeCLI(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string, socket, configPath string) error {
	cmd := newRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	return cmd.ExecuteContext(ctx)
}

// syncBuffer is a thread-safe wrapper around bytes.Buffer for use in tests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func summaryJSON(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "summary.json")
	data := `{
  "total": 10, "success": 7, "failure": 3,
  "top_categories": [["auth", 6], ["files", 4]],
  "top_users": [["alice", 5]],
  "top_actions": [["login", 5], ["logout", 3]],
  "rows": [
    {"timestamp": "2024-05-01T10:00:00Z", "action": "login", "category": "auth", "user": "alice", "status": "ok"},
    {"timestamp": "2024-05-01T10:05:00Z", "action": "logout", "category": "auth", "user": "bob", "status": "fail"}
  ]
}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write summary: %v", err)
	}
	return path
}
