package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"auditdesk/internal/api"
	"auditdesk/internal/daemonctl"
	"auditdesk/internal/ipc"
	"auditdesk/internal/preflight"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the auditdesk daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonctl.LaunchOptions{SocketPath: ctx.socketPath(), ConfigPath: ctx.configPath()},
				10*time.Second,
			)
			if err != nil {
				return err
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(stdout, "Daemon already running (pid %d)\n", result.PID)
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the auditdesk daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var jsonOutput bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show environment checks and daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *ctx.configValue()
			cfg.API.Socket = ctx.socketPath()
			checks := preflight.RunAll(cmd.Context(), &cfg)

			var daemonStatus *api.StatusResponse
			if alive, _, _ := daemonctl.ProcessInfo(cfg.API.Socket); alive {
				_ = ctx.withClient(func(client *ipc.Client) error {
					status, err := client.Status()
					if err == nil {
						daemonStatus = status
					}
					return err
				})
			}

			if jsonOutput {
				return writeJSON(cmd, statusSnapshot{Checks: checks, Daemon: daemonStatus})
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			for _, line := range renderSectionHeader("System Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, r := range checks {
				fmt.Fprintln(stdout, renderStatusLine(r.Name, statusKindForResult(r), r.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonStatusLines(daemonStatus, colorize) {
				fmt.Fprintln(stdout, line)
			}

			if failed := preflight.Failed(checks); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print status as JSON")

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

type statusSnapshot struct {
	Checks []preflight.Result  `json:"checks"`
	Daemon *api.StatusResponse `json:"daemon,omitempty"`
}

func daemonStatusLines(status *api.StatusResponse, colorize bool) []string {
	if status == nil {
		return []string{renderStatusLine("Daemon", statusWarn, "not running (start with `auditdesk start`)", colorize)}
	}
	kind := statusOK
	state := "running"
	if !status.Running {
		kind, state = statusWarn, "stopping"
	}
	lines := []string{
		renderStatusLine("Daemon", kind, fmt.Sprintf("%s (pid %d)", state, status.PID), colorize),
	}
	if status.StartedAt != "" {
		lines = append(lines, renderStatusLine("Started", statusInfo, status.StartedAt, colorize))
	}
	if status.Bind != "" {
		lines = append(lines, renderStatusLine("HTTP API", statusInfo, status.Bind, colorize))
	}
	lines = append(lines,
		renderStatusLine("Tail decode", statusInfo, status.DecodePolicy, colorize),
		renderStatusLine("Reports rendered", statusInfo, strconv.FormatUint(status.Stats.ReportsRendered, 10), colorize),
		renderStatusLine("Chunks served", statusInfo, strconv.FormatUint(status.Stats.ChunksServed, 10), colorize),
	)
	failKind := statusInfo
	if status.Stats.Failures > 0 {
		failKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Failures", failKind, strconv.FormatUint(status.Stats.Failures, 10), colorize))
	if status.LogPath != "" {
		lines = append(lines, renderStatusLine("Log", statusInfo, status.LogPath, colorize))
	}
	return lines
}
