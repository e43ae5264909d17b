package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"auditdesk/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileReadable(t *testing.T) {
	f := filepath.Join(t.TempDir(), "font.ttf")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckFileReadable("font", f); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckFileReadable("font", filepath.Dir(f)); result.Passed {
		t.Fatal("expected failure for directory")
	}
}

func TestCheckDaemonSocket_NotRunning(t *testing.T) {
	result := CheckDaemonSocket(filepath.Join(t.TempDir(), "auditdesk.sock"))
	if result.Passed || !result.Skipped {
		t.Fatalf("expected skipped result, got %+v", result)
	}
}

func TestCheckDaemonSocket_NotASocket(t *testing.T) {
	f := filepath.Join(t.TempDir(), "auditdesk.sock")
	if err := os.WriteFile(f, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	result := CheckDaemonSocket(f)
	if result.Passed || result.Skipped {
		t.Fatalf("expected failure, got %+v", result)
	}
}

func TestCheckAPI_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	result := CheckAPI(context.Background(), srv.URL, "")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckAPI_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := CheckAPI(context.Background(), srv.URL, "")
	if result.Passed || result.Skipped {
		t.Fatalf("expected failure, got %+v", result)
	}
}

func TestCheckAPI_NotListening(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()

	result := CheckAPI(context.Background(), addr, "")
	if !result.Skipped {
		t.Fatalf("expected skipped, got %+v", result)
	}
}

func TestRunAllOnFreshConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg.API.Bind = srv.Listener.Addr().String()
	srv.Close()

	results := RunAll(context.Background(), cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected no failures, got %+v", failed)
	}
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"Log directory", "State directory", "Report directory", "Cursor store", "Daemon socket", "HTTP API"} {
		if !names[want] {
			t.Fatalf("missing check %q in %+v", want, results)
		}
	}
}

func TestFailedSkipsSkipped(t *testing.T) {
	results := []Result{{Name: "a", Passed: true}, {Name: "b", Skipped: true}, {Name: "c"}}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "c" {
		t.Fatalf("unexpected failed set %+v", failed)
	}
}

