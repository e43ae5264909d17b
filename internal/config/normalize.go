package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAPI(); err != nil {
		return err
	}
	if err := c.normalizeReport(); err != nil {
		return err
	}
	c.normalizeTail()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	// An empty report_dir means destinations are used as given.
	if c.Paths.ReportDir, err = expandPath(strings.TrimSpace(c.Paths.ReportDir)); err != nil {
		return fmt.Errorf("paths.report_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() error {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("AUDITDESK_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
	var err error
	if c.API.Socket, err = expandPath(strings.TrimSpace(c.API.Socket)); err != nil {
		return fmt.Errorf("api.socket: %w", err)
	}
	return nil
}

func (c *Config) normalizeReport() error {
	c.Report.Title = strings.TrimSpace(c.Report.Title)
	if c.Report.Title == "" {
		c.Report.Title = defaultReportTitle
	}
	c.Report.Creator = strings.TrimSpace(c.Report.Creator)
	if c.Report.Creator == "" {
		c.Report.Creator = defaultReportCreator
	}
	var err error
	if c.Report.FontFile, err = expandPath(strings.TrimSpace(c.Report.FontFile)); err != nil {
		return fmt.Errorf("report.font_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeTail() {
	c.Tail.Decode = strings.ToLower(strings.TrimSpace(c.Tail.Decode))
	if c.Tail.Decode == "" {
		c.Tail.Decode = defaultTailDecode
	}
	if c.Tail.PollIntervalMS == 0 {
		c.Tail.PollIntervalMS = defaultTailPollInterval
	}
	if c.Tail.DefaultLines == 0 {
		c.Tail.DefaultLines = defaultTailLines
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}
