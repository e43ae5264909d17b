package testsupport

import (
	"path/filepath"
	"testing"

	"auditdesk/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The HTTP listener binds an ephemeral port and the socket lives in the
// temp state directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.ReportDir = filepath.Join(base, "reports")
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.API.Token = ""
	cfgVal.API.Socket = ""
	cfgVal.Tail.PollIntervalMS = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithDecodePolicy sets the tail decode policy.
func WithDecodePolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tail.Decode = policy
	}
}

// WithAPIToken requires bearer auth on the HTTP listener.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// WithReportTitle overrides the document title.
func WithReportTitle(title string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Report.Title = title
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
