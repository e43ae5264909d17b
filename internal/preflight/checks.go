package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"auditdesk/internal/api"
	"auditdesk/internal/ipc"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFileReadable verifies that path is a readable regular file.
func CheckFileReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckDaemonSocket dials the IPC socket and asks for status. A missing
// socket means the daemon is not running, which is reported as skipped.
func CheckDaemonSocket(path string) Result {
	const name = "Daemon socket"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Skipped: true, Detail: "daemon not running"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.Mode()&os.ModeSocket == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a socket)", path)}
	}

	client, err := ipc.Dial(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stale socket: %v)", path, err)}
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("status call failed (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("pid %d, up since %s", status.PID, status.StartedAt)}
}

// CheckAPI probes the HTTP health endpoint. An unreachable listener means
// the daemon is not running, which is reported as skipped.
func CheckAPI(ctx context.Context, bind, token string) Result {
	const name = "HTTP API"

	client, err := api.NewClient(bind, token)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid bind %q (%v)", bind, err)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Health(checkCtx); err != nil {
		if api.IsUnavailable(err) {
			return Result{Name: name, Skipped: true, Detail: fmt.Sprintf("%s (not listening)", bind)}
		}
		return Result{Name: name, Detail: summarizeHTTPError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", bind)}
}

func summarizeHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (daemon unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (daemon unreachable)"
	}
	return err.Error()
}
