package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"auditdesk/internal/config"
)

const userAgent = "auditdesk/0.1"

// Service is the notification surface used by the request layer.
type Service interface {
	NotifyReportGenerated(ctx context.Context, path string, rowsShown, rowsDropped int) error
	NotifyRequestFailed(ctx context.Context, operation string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed notifier, or a no-op one when
// notifications.ntfy_topic is empty.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		onReport:  cfg.Notifications.OnReport,
		onFailure: cfg.Notifications.OnFailure,
	}
}

// Enabled reports whether svc delivers anything.
func Enabled(svc Service) bool {
	if svc == nil {
		return false
	}
	_, noop := svc.(noopService)
	return !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	onReport  bool
	onFailure bool
}

func (n *ntfyService) NotifyReportGenerated(ctx context.Context, path string, rowsShown, rowsDropped int) error {
	if !n.onReport {
		return nil
	}
	message := fmt.Sprintf("Report written: %s\n%d event rows", filepath.Base(path), rowsShown)
	if rowsDropped > 0 {
		message += fmt.Sprintf(" (%d omitted)", rowsDropped)
	}
	return n.send(ctx, payload{
		title:   "auditdesk - Report Ready",
		message: message,
		tags:    []string{"auditdesk", "report", "page_facing_up"},
	})
}

func (n *ntfyService) NotifyRequestFailed(ctx context.Context, operation string, err error) error {
	if !n.onFailure {
		return nil
	}
	var b strings.Builder
	b.WriteString("Request failed")
	if operation = strings.TrimSpace(operation); operation != "" {
		b.WriteString(" (")
		b.WriteString(operation)
		b.WriteString(")")
	}
	b.WriteString(": ")
	if err != nil {
		b.WriteString(strings.TrimSpace(err.Error()))
	} else {
		b.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "auditdesk - Error",
		message:  b.String(),
		tags:     []string{"auditdesk", "error", "warning"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "auditdesk - Test",
		message:  "Notification system test",
		tags:     []string{"auditdesk", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyReportGenerated(context.Context, string, int, int) error { return nil }
func (noopService) NotifyRequestFailed(context.Context, string, error) error      { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
