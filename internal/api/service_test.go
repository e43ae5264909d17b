package api

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditdesk/internal/services"
	"auditdesk/internal/testsupport"
)

func newTestService(t *testing.T, opts ...testsupport.ConfigOption) *Service {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	svc, err := NewService(cfg, nil)
	require.NoError(t, err)
	return svc
}

func TestGenerateReportWritesUnderReportDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc, err := NewService(cfg, nil)
	require.NoError(t, err)

	resp, err := svc.GenerateReport(context.Background(), ReportRequest{
		Path:    "weekly.pdf",
		Payload: testsupport.SampleSummary(),
	})
	require.NoError(t, err)

	want := filepath.Join(cfg.Paths.ReportDir, "weekly.pdf")
	assert.Equal(t, want, resp.Path)
	assert.Equal(t, 2, resp.RowsShown)
	assert.NotEmpty(t, resp.RequestID)
	testsupport.RequirePDF(t, want)
	assert.Equal(t, uint64(1), svc.Stats().ReportsRendered)
}

func TestGenerateReportKeepsCallerRequestID(t *testing.T) {
	svc := newTestService(t)
	svc.newID = func() string { t.Fatal("request id should not be generated"); return "" }

	ctx := services.WithRequestID(context.Background(), "req-123")
	resp, err := svc.GenerateReport(ctx, ReportRequest{
		Path:    filepath.Join(t.TempDir(), "out.pdf"),
		Payload: testsupport.SampleSummary(),
	})
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.RequestID)
}

func TestGenerateReportRejectsEmptyPath(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GenerateReport(context.Background(), ReportRequest{Path: "  "})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	assert.Equal(t, uint64(1), svc.Stats().Failures)
}

func TestGenerateReportMissingDirectory(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GenerateReport(context.Background(), ReportRequest{
		Path:    filepath.Join(t.TempDir(), "missing", "out.pdf"),
		Payload: testsupport.SampleSummary(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrIO)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestReadTailRoundTrip(t *testing.T) {
	svc := newTestService(t)
	path := filepath.Join(t.TempDir(), "audit.log")
	length := testsupport.WriteLog(t, path, "first", "second")

	resp, err := svc.ReadTail(context.Background(), TailRequest{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", resp.Text)
	assert.Equal(t, length, resp.Length)

	next := testsupport.AppendLog(t, path, "third")
	resp, err = svc.ReadTail(context.Background(), TailRequest{Path: path, Offset: resp.Length})
	require.NoError(t, err)
	assert.Equal(t, "third\n", resp.Text)
	assert.Equal(t, next, resp.Length)
	assert.Equal(t, uint64(2), svc.Stats().ChunksServed)
}

func TestReadTailMissingFile(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ReadTail(context.Background(), TailRequest{Path: filepath.Join(t.TempDir(), "missing.log")})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestReadTailDecodePolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.log")
	require.NoError(t, os.WriteFile(path, []byte("ok\xff\n"), 0o644))

	strict := newTestService(t)
	_, err := strict.ReadTail(context.Background(), TailRequest{Path: path})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrDecode)
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(err))

	lenient := newTestService(t, testsupport.WithDecodePolicy("replace"))
	resp, err := lenient.ReadTail(context.Background(), TailRequest{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "ok�\n", resp.Text)
}

func TestNewServiceRejectsUnknownPolicy(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDecodePolicy("latin1"))
	_, err := NewService(cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", services.Wrap(services.ErrValidation, "api", "op", "bad", nil), http.StatusBadRequest},
		{"decode", services.Wrap(services.ErrDecode, "logs", "decode", "bad", nil), http.StatusUnprocessableEntity},
		{"encoding", services.Wrap(services.ErrEncoding, "report", "encode", "bad", nil), http.StatusInternalServerError},
		{"io not found", services.Wrap(services.ErrIO, "logs", "open", "bad", fs.ErrNotExist), http.StatusNotFound},
		{"io permission", services.Wrap(services.ErrIO, "logs", "open", "bad", fs.ErrPermission), http.StatusInternalServerError},
		{"untagged", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestRemoteErrorUnwrapsMarkers(t *testing.T) {
	err := error(&RemoteError{Status: http.StatusNotFound, Kind: "io", Message: "open log file: no such file"})
	assert.ErrorIs(t, err, services.ErrIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, "open log file: no such file", err.Error())

	bare := &RemoteError{Status: http.StatusBadGateway}
	assert.Equal(t, "daemon returned status 502", bare.Error())
	assert.Empty(t, bare.Unwrap())
}

func TestTailLinesPrimesOffset(t *testing.T) {
	svc := newTestService(t)
	path := filepath.Join(t.TempDir(), "audit.log")
	length := testsupport.WriteLog(t, path, "a", "b", "c", "d")

	resp, err := svc.TailLines(context.Background(), TailLinesRequest{Path: path, Lines: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, resp.Lines)
	assert.Equal(t, length, resp.Offset)

	resp, err = svc.TailLines(context.Background(), TailLinesRequest{Path: path})
	require.NoError(t, err)
	assert.Len(t, resp.Lines, 4)
}

func TestTailLinesReportsUnfinishedLine(t *testing.T) {
	svc := newTestService(t)
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, os.WriteFile(path, []byte("one\ntw"), 0o644))

	resp, err := svc.TailLines(context.Background(), TailLinesRequest{Path: path, Lines: 5})
	require.NoError(t, err)
	assert.Equal(t, TailLinesResponse{Lines: []string{"one", "tw"}, Offset: 6, Partial: true}, resp)
}

func TestReadTailSettleHoldsBackSplitCharacter(t *testing.T) {
	svc := newTestService(t)
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, os.WriteFile(path, []byte("ok\n\xc3"), 0o644))

	_, err := svc.ReadTail(context.Background(), TailRequest{Path: path})
	assert.ErrorIs(t, err, services.ErrDecode)

	resp, err := svc.ReadTail(context.Background(), TailRequest{Path: path, Settle: true})
	require.NoError(t, err)
	assert.Equal(t, TailResponse{Text: "ok\n", Length: 3}, resp)
}
