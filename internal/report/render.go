package report

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"auditdesk/internal/fileutil"
	"auditdesk/internal/logging"
	"auditdesk/internal/services"
)

const component = "report"

// Options configures a Renderer.
type Options struct {
	Title    string
	Creator  string
	FontFile string
}

// SinkFactory builds the DocumentSink for one render.
type SinkFactory func(PDFOptions) (DocumentSink, error)

// Renderer turns summaries into PDF files. It holds no per-render state and
// is safe for concurrent use.
type Renderer struct {
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
	newSink SinkFactory
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithSinkFactory replaces the PDF sink.
func WithSinkFactory(factory SinkFactory) Option {
	return func(r *Renderer) { r.newSink = factory }
}

// NewRenderer constructs a Renderer.
func NewRenderer(opts Options, logger *slog.Logger, options ...Option) *Renderer {
	r := &Renderer{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, component),
		now:    time.Now,
		newSink: func(o PDFOptions) (DocumentSink, error) {
			return NewPDFSink(o)
		},
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Render lays out summary and atomically writes the PDF to destination.
// Sink and font failures are tagged services.ErrEncoding; filesystem
// failures are tagged services.ErrIO and wrap the OS error.
func (r *Renderer) Render(destination string, summary Summary) (Page, error) {
	if strings.TrimSpace(destination) == "" {
		return Page{}, services.Wrap(services.ErrIO, component, "write", "destination path is empty", fs.ErrInvalid)
	}

	page := Layout(summary, r.opts.Title, r.now())
	data, err := r.encode(page)
	if err != nil {
		return Page{}, err
	}

	if err := fileutil.WriteFileAtomic(destination, data, 0o644); err != nil {
		return Page{}, services.Wrap(services.ErrIO, component, "write", fmt.Sprintf("write %s", destination), err)
	}

	r.logger.Debug("report written",
		logging.String("destination", destination),
		logging.Int("bytes", len(data)),
		logging.Int("rows", page.RowsShown),
		logging.Int("rows_dropped", page.RowsDropped),
	)
	return page, nil
}

// Encode renders summary to PDF bytes without touching the filesystem.
func (r *Renderer) Encode(summary Summary) ([]byte, error) {
	return r.encode(Layout(summary, r.opts.Title, r.now()))
}

func (r *Renderer) encode(page Page) ([]byte, error) {
	sink, err := r.newSink(PDFOptions{
		Title:       page.Title,
		Creator:     r.opts.Creator,
		FontFile:    r.opts.FontFile,
		GeneratedAt: page.GeneratedAt,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrEncoding, component, "encode", "prepare document", err)
	}
	if err := Draw(sink, page); err != nil {
		return nil, services.Wrap(services.ErrEncoding, component, "encode", "draw page", err)
	}
	var buf bytes.Buffer
	if err := sink.Encode(&buf); err != nil {
		return nil, services.Wrap(services.ErrEncoding, component, "encode", "encode document", err)
	}
	return buf.Bytes(), nil
}

// Render writes summary to destination with default options.
func Render(destination string, summary Summary) error {
	_, err := NewRenderer(Options{}, nil).Render(destination, summary)
	return err
}
