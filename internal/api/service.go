package api

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"auditdesk/internal/config"
	"auditdesk/internal/logging"
	"auditdesk/internal/logs"
	"auditdesk/internal/notifications"
	"auditdesk/internal/report"
	"auditdesk/internal/services"
)

const (
	// OperationReport is the operation label for generate_pdf_report.
	OperationReport = "generate_pdf_report"
	// OperationTail is the operation label for read_tail_chunk.
	OperationTail = "read_tail_chunk"
	// OperationTailLines is the operation label for the last-lines priming read.
	OperationTailLines = "tail_lines"

	// TransportHTTP, TransportIPC and TransportCLI label the calling surface.
	TransportHTTP = "http"
	TransportIPC  = "ipc"
	TransportCLI  = "cli"
)

const defaultLines = 20

// Service runs the public operations for every transport.
type Service struct {
	renderer    *report.Renderer
	reader      *logs.Reader
	resolvePath func(string) string
	logger      *slog.Logger
	notifier    notifications.Service
	newID       func() string

	reports  atomic.Uint64
	chunks   atomic.Uint64
	failures atomic.Uint64
}

// NewService builds a Service from configuration.
func NewService(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrValidation, "api", "init", "configuration is required", nil)
	}
	policy, err := logs.ParseDecodePolicy(cfg.Tail.Decode)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "api", "init", "tail decode policy", err)
	}
	renderer := report.NewRenderer(report.Options{
		Title:    cfg.Report.Title,
		Creator:  cfg.Report.Creator,
		FontFile: cfg.Report.FontFile,
	}, logger)
	return NewServiceWith(renderer, logs.NewReader(policy, logger), cfg.ResolveReportPath, logger,
		WithNotifier(notifications.NewService(cfg))), nil
}

// ServiceOption customizes a Service built by NewServiceWith.
type ServiceOption func(*Service)

// WithNotifier pushes report and server-side failure events to n.
func WithNotifier(n notifications.Service) ServiceOption {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// NewServiceWith assembles a Service from prebuilt collaborators. A nil
// resolvePath leaves report destinations unchanged.
func NewServiceWith(renderer *report.Renderer, reader *logs.Reader, resolvePath func(string) string, logger *slog.Logger, opts ...ServiceOption) *Service {
	if renderer == nil {
		renderer = report.NewRenderer(report.Options{}, logger)
	}
	if reader == nil {
		reader = logs.NewReader(logs.DecodeStrict, logger)
	}
	if resolvePath == nil {
		resolvePath = func(p string) string { return p }
	}
	s := &Service{
		renderer:    renderer,
		reader:      reader,
		resolvePath: resolvePath,
		logger:      logging.NewComponentLogger(logger, "api"),
		notifier:    notifications.NewService(nil),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DecodePolicy reports the tail reader's decode policy.
func (s *Service) DecodePolicy() logs.DecodePolicy {
	return s.reader.Policy()
}

// Stats returns outcome counters since the Service was built.
func (s *Service) Stats() ServiceStats {
	return ServiceStats{
		ReportsRendered: s.reports.Load(),
		ChunksServed:    s.chunks.Load(),
		Failures:        s.failures.Load(),
	}
}

// GenerateReport renders req.Payload to req.Path.
func (s *Service) GenerateReport(ctx context.Context, req ReportRequest) (ReportResponse, error) {
	ctx = s.annotate(ctx, OperationReport)
	logger := logging.WithContext(ctx, s.logger)
	requestID, _ := services.RequestIDFromContext(ctx)

	dest := strings.TrimSpace(req.Path)
	if dest == "" {
		return ReportResponse{}, s.fail(ctx, logger, services.Wrap(services.ErrValidation, "api", OperationReport, "report path is required", nil))
	}
	dest = s.resolvePath(dest)

	page, err := s.renderer.Render(dest, req.Payload)
	if err != nil {
		return ReportResponse{}, s.fail(ctx, logger, err, logging.String("destination", dest))
	}
	s.reports.Add(1)
	logger.Info("report generated",
		logging.String(logging.FieldEventType, "report_generated"),
		logging.String("destination", dest),
		logging.Int("rows", page.RowsShown),
		logging.Int("rows_dropped", page.RowsDropped),
	)
	s.notify(ctx, logger, func(nctx context.Context) error {
		return s.notifier.NotifyReportGenerated(nctx, dest, page.RowsShown, page.RowsDropped)
	})
	return ReportResponse{
		Path:        dest,
		RequestID:   requestID,
		RowsShown:   page.RowsShown,
		RowsDropped: page.RowsDropped,
	}, nil
}

// ReadTail returns the text appended to req.Path after req.Offset.
func (s *Service) ReadTail(ctx context.Context, req TailRequest) (TailResponse, error) {
	ctx = s.annotate(ctx, OperationTail)
	logger := logging.WithContext(ctx, s.logger)

	path := strings.TrimSpace(req.Path)
	if path == "" {
		return TailResponse{}, s.fail(ctx, logger, services.Wrap(services.ErrValidation, "api", OperationTail, "log path is required", nil))
	}

	read := s.reader.ReadChunk
	if req.Settle {
		read = s.reader.ReadSettledChunk
	}
	chunk, err := read(path, req.Offset)
	if err != nil {
		return TailResponse{}, s.fail(ctx, logger, err, logging.Path(path), logging.Offset(req.Offset))
	}
	s.chunks.Add(1)
	logger.Debug("tail chunk served",
		logging.Path(path),
		logging.Offset(req.Offset),
		logging.Uint64("length", chunk.Length),
		logging.Int("text_bytes", len(chunk.Text)),
	)
	return TailResponse{Text: chunk.Text, Length: chunk.Length}, nil
}

// TailLines returns the last req.Lines lines of req.Path and the offset a
// follow-up ReadTail should start from. Lines <= 0 uses defaultLines.
func (s *Service) TailLines(ctx context.Context, req TailLinesRequest) (TailLinesResponse, error) {
	ctx = s.annotate(ctx, OperationTailLines)
	logger := logging.WithContext(ctx, s.logger)

	path := strings.TrimSpace(req.Path)
	if path == "" {
		return TailLinesResponse{}, s.fail(ctx, logger, services.Wrap(services.ErrValidation, "api", OperationTailLines, "log path is required", nil))
	}
	n := req.Lines
	if n <= 0 {
		n = defaultLines
	}
	last, err := s.reader.TailLines(path, n)
	if err != nil {
		return TailLinesResponse{}, s.fail(ctx, logger, err, logging.Path(path))
	}
	s.chunks.Add(1)
	lines := last.Lines
	if lines == nil {
		lines = []string{}
	}
	return TailLinesResponse{Lines: lines, Offset: last.Offset, Partial: last.Partial}, nil
}

// annotate stamps a request ID unless the caller already supplied one.
func (s *Service) annotate(ctx context.Context, operation string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, s.newID())
	}
	return services.WithOperation(ctx, operation)
}

func (s *Service) fail(ctx context.Context, logger *slog.Logger, err error, attrs ...logging.Attr) error {
	s.failures.Add(1)
	// Only server-side failures are pushed: not bad input, undecodable text
	// or a missing file.
	if kind := services.Kind(err); kind != "validation" && kind != "decode" && !errors.Is(err, fs.ErrNotExist) {
		operation, _ := services.OperationFromContext(ctx)
		s.notify(ctx, logger, func(nctx context.Context) error {
			return s.notifier.NotifyRequestFailed(nctx, operation, err)
		})
	}
	attrs = append(attrs,
		logging.Error(err),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
	)
	if services.Kind(err) == "validation" {
		logger.Debug("request rejected", logging.Args(attrs...)...)
		return err
	}
	logging.WarnWithContext(logger, "request failed", "request_failed",
		append(attrs,
			logging.String(logging.FieldErrorHint, "check the path and file permissions"),
			logging.String(logging.FieldImpact, "caller receives an error response"),
		)...,
	)
	return err
}

// notify delivers in the background. Delivery failures are only logged.
func (s *Service) notify(ctx context.Context, logger *slog.Logger, send func(context.Context) error) {
	if !notifications.Enabled(s.notifier) {
		return
	}
	nctx := context.WithoutCancel(ctx)
	go func() {
		if err := send(nctx); err != nil {
			logging.WarnWithContext(logger, "notification failed", "notification_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
				logging.String(logging.FieldImpact, "push notification was not delivered"),
			)
		}
	}()
}

// FormatTime renders t the way API payloads carry timestamps.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
