package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateReport(); err != nil {
		return err
	}
	if err := c.validateTail(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind %q must be host:port: %w", c.API.Bind, err)
	}
	return nil
}

func (c *Config) validateReport() error {
	if c.Report.FontFile == "" {
		return nil
	}
	info, err := os.Stat(c.Report.FontFile)
	if err != nil {
		return fmt.Errorf("report.font_file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("report.font_file %q is a directory", c.Report.FontFile)
	}
	return nil
}

func (c *Config) validateTail() error {
	switch c.Tail.Decode {
	case DecodeStrict, DecodeReplace:
	default:
		return fmt.Errorf("tail.decode must be %q or %q, got %q", DecodeStrict, DecodeReplace, c.Tail.Decode)
	}
	if c.Tail.PollIntervalMS < 0 {
		return errors.New("tail.poll_interval_ms must be positive")
	}
	if c.Tail.DefaultLines < 0 {
		return errors.New("tail.default_lines must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	u, err := url.Parse(topic)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic %q must be an http(s) topic URL", topic)
	}
	return nil
}
