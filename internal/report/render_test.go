package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditdesk/internal/services"
)

func sampleSummary() Summary {
	return Summary{
		Total:         10,
		Success:       7,
		Failure:       3,
		TopCategories: []RankedEntry{{"login", 5}, {"logout", 3}},
		Rows:          rows(2),
	}
}

func newTestRenderer(opts ...Option) *Renderer {
	opts = append([]Option{WithClock(func() time.Time { return fixedTime })}, opts...)
	return NewRenderer(Options{Title: "Audit Report", Creator: "auditdesk-test"}, nil, opts...)
}

type recordingSink struct {
	pages  int
	blocks []TextBlock
	err    error
}

func (s *recordingSink) AddPage(float64, float64) error { s.pages++; return nil }

func (s *recordingSink) DrawText(b TextBlock) error {
	s.blocks = append(s.blocks, b)
	return nil
}

func (s *recordingSink) Encode(w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	_, err := fmt.Fprintf(w, "%d blocks", len(s.blocks))
	return err
}

func TestRenderWritesPDF(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.pdf")

	page, err := newTestRenderer().Render(dest, sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, 2, page.RowsShown)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "missing PDF header")
}

func TestRenderPackageFunction(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, Render(dest, sampleSummary()))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRenderLatin1Labels(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.pdf")
	summary := sampleSummary()
	summary.TopUsers = []RankedEntry{{"Zoë", 2}, {"José", 1}}

	_, err := newTestRenderer().Render(dest, summary)
	require.NoError(t, err)
}

func TestRenderDrawsLayoutOntoSink(t *testing.T) {
	sink := &recordingSink{}
	r := newTestRenderer(WithSinkFactory(func(PDFOptions) (DocumentSink, error) { return sink, nil }))
	dest := filepath.Join(t.TempDir(), "report.bin")

	_, err := r.Render(dest, sampleSummary())
	require.NoError(t, err)

	assert.Equal(t, 1, sink.pages)
	assert.Equal(t, Layout(sampleSummary(), "Audit Report", fixedTime).Blocks, sink.blocks)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "11 blocks", string(data))
}

func TestRenderMissingDirectoryIsIOFailure(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "missing", "report.pdf")

	_, err := newTestRenderer().Render(dest, sampleSummary())
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, "io", services.Kind(err))
}

func TestRenderEmptyDestinationIsIOFailure(t *testing.T) {
	_, err := newTestRenderer().Render("  ", sampleSummary())
	assert.ErrorIs(t, err, services.ErrIO)
}

func TestRenderEncodeFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(dest, []byte("previous"), 0o644))

	boom := errors.New("encoder exploded")
	r := newTestRenderer(WithSinkFactory(func(PDFOptions) (DocumentSink, error) {
		return &recordingSink{err: boom}, nil
	}))

	_, err := r.Render(dest, sampleSummary())
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrEncoding)
	assert.ErrorIs(t, err, boom)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRenderMissingFontIsEncodingFailure(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "report.pdf")
	r := NewRenderer(Options{FontFile: filepath.Join(dir, "absent.ttf")}, nil)

	_, err := r.Render(dest, sampleSummary())
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrEncoding)

	_, statErr := os.Stat(dest)
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

func TestRenderCorruptFontIsEncodingFailure(t *testing.T) {
	dir := t.TempDir()
	font := filepath.Join(dir, "broken.ttf")
	require.NoError(t, os.WriteFile(font, []byte("not a font"), 0o644))

	r := NewRenderer(Options{FontFile: font}, nil)
	_, err := r.Render(filepath.Join(dir, "report.pdf"), sampleSummary())
	assert.ErrorIs(t, err, services.ErrEncoding)
}

func TestConcurrentRendersToDistinctPaths(t *testing.T) {
	dir := t.TempDir()
	r := newTestRenderer()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Render(filepath.Join(dir, fmt.Sprintf("report-%d.pdf", i)), sampleSummary())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "render %d", i)
	}
}

func TestEncodeIsDeterministicForFixedClock(t *testing.T) {
	r := newTestRenderer()
	first, err := r.Encode(sampleSummary())
	require.NoError(t, err)
	second, err := r.Encode(sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
