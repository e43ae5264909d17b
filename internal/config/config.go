package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
	ReportDir string `toml:"report_dir"`
}

// API contains the daemon listener settings.
type API struct {
	Bind   string `toml:"bind"`
	Token  string `toml:"token"`
	Socket string `toml:"socket"`
}

// Report contains document rendering settings.
type Report struct {
	Title    string `toml:"title"`
	Creator  string `toml:"creator"`
	FontFile string `toml:"font_file"`
}

// Tail contains incremental log reading settings.
type Tail struct {
	// Decode is either "strict" or "replace".
	Decode         string `toml:"decode"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
	DefaultLines   int    `toml:"default_lines"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains ntfy push settings. An empty topic disables them.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnReport       bool   `toml:"on_report"`
	OnFailure      bool   `toml:"on_failure"`
}

// Config encapsulates all configuration values for auditdesk.
//
// Configuration sections:
//   - Paths: log, state, and report directories
//   - API: HTTP bind address, bearer token, and IPC socket
//   - Report: document title, creator, and optional TTF font
//   - Tail: decode policy, follow interval, and default line count
//   - Logging: log format, level, and retention
//   - Notifications: ntfy topic and which events are pushed
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	Report        Report        `toml:"report"`
	Tail          Tail          `toml:"tail"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("auditdesk.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.ReportDir) != "" {
		if err := os.MkdirAll(c.Paths.ReportDir, 0o755); err != nil {
			return fmt.Errorf("create report directory %q: %w", c.Paths.ReportDir, err)
		}
	}
	return nil
}

// SocketPath returns the JSON-RPC socket path.
func (c *Config) SocketPath() string {
	if c.API.Socket != "" {
		return c.API.Socket
	}
	return filepath.Join(c.Paths.StateDir, "auditdesk.sock")
}

// LockPath returns the daemon single-instance lock path.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "auditdesk.lock")
}

// CursorDBPath returns the SQLite database holding tail bookmarks.
func (c *Config) CursorDBPath() string {
	return filepath.Join(c.Paths.StateDir, "cursors.db")
}

// DaemonLogPath returns the file the daemon mirrors its log output to.
func (c *Config) DaemonLogPath() string {
	return filepath.Join(c.Paths.LogDir, "auditdesk.log")
}

// PollInterval returns the follow-mode polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Tail.PollIntervalMS) * time.Millisecond
}

// ResolveReportPath places relative report destinations under report_dir.
// Absolute paths are returned unchanged.
func (c *Config) ResolveReportPath(dest string) string {
	dest = strings.TrimSpace(dest)
	if dest == "" || filepath.IsAbs(dest) || c.Paths.ReportDir == "" {
		return dest
	}
	return filepath.Join(c.Paths.ReportDir, dest)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
