package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"auditdesk/internal/api"
	"auditdesk/internal/config"
	"auditdesk/internal/cursors"
	"auditdesk/internal/ipc"
	"auditdesk/internal/logs"
)

// tailSource is where tail reads are served from: in-process or the daemon.
type tailSource interface {
	chunk(ctx context.Context, path string, offset uint64, settle bool) (api.TailResponse, error)
	last(ctx context.Context, path string, n int) (api.TailLinesResponse, error)
	follow(ctx context.Context, path string, offset uint64, interval time.Duration, fn func(api.TailResponse) error) (uint64, error)
}

type localTail struct {
	svc    *api.Service
	reader *logs.Reader
}

func newLocalTail(ctx *commandContext, cfg *config.Config) (*localTail, error) {
	svc, err := api.NewService(cfg, ctx.cliLogger())
	if err != nil {
		return nil, err
	}
	return &localTail{svc: svc, reader: logs.NewReader(svc.DecodePolicy(), ctx.cliLogger())}, nil
}

func (l *localTail) chunk(ctx context.Context, path string, offset uint64, settle bool) (api.TailResponse, error) {
	return l.svc.ReadTail(ctx, api.TailRequest{Path: path, Offset: offset, Settle: settle})
}

func (l *localTail) last(ctx context.Context, path string, n int) (api.TailLinesResponse, error) {
	return l.svc.TailLines(ctx, api.TailLinesRequest{Path: path, Lines: n})
}

func (l *localTail) follow(ctx context.Context, path string, offset uint64, interval time.Duration, fn func(api.TailResponse) error) (uint64, error) {
	return l.reader.Follow(ctx, path, offset, interval, func(c logs.TailChunk) error {
		return fn(api.TailResponse{Text: c.Text, Length: c.Length})
	})
}

type daemonTail struct {
	client *ipc.Client
}

func (d daemonTail) chunk(_ context.Context, path string, offset uint64, settle bool) (api.TailResponse, error) {
	resp, err := d.client.ReadTailChunk(ipc.TailRequest{Path: path, Offset: offset, Settle: settle})
	if err != nil {
		return api.TailResponse{}, err
	}
	return *resp, nil
}

func (d daemonTail) last(_ context.Context, path string, n int) (api.TailLinesResponse, error) {
	resp, err := d.client.TailLines(ipc.TailLinesRequest{Path: path, Lines: n})
	if err != nil {
		return api.TailLinesResponse{}, err
	}
	return *resp, nil
}

func (d daemonTail) follow(ctx context.Context, path string, offset uint64, interval time.Duration, fn func(api.TailResponse) error) (uint64, error) {
	if interval <= 0 {
		interval = logs.DefaultFollowInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		resp, err := d.chunk(ctx, path, offset, true)
		if err != nil {
			return offset, err
		}
		if resp.Text != "" {
			if err := fn(resp); err != nil {
				return offset, err
			}
		}
		offset = resp.Length

		select {
		case <-ctx.Done():
			return offset, ctx.Err()
		case <-ticker.C:
		}
	}
}

type tailOptions struct {
	offset    uint64
	lines     int
	follow    bool
	resume    bool
	save      bool
	viaDaemon bool
	json      bool
}

func newTailCommand(ctx *commandContext) *cobra.Command {
	var opts tailOptions

	cmd := &cobra.Command{
		Use:   "tail <log-file>",
		Short: "Print text appended to a log file",
		Long: `Print the text of a log file from a byte offset.

Without --offset or --resume the last --lines lines are shown first.
--resume starts from the bookmark saved by an earlier --save or --resume run
and stores the new position when the command exits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.lines = resolveLines(cmd, opts.lines, ctx.configValue())
			return runTail(cmd, ctx, args[0], opts)
		},
	}
	cmd.Flags().Uint64Var(&opts.offset, "offset", 0, "Start reading at this byte offset")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 0, "Number of trailing lines to show first (default tail.default_lines)")
	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Keep polling for new text until interrupted")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "Start from the saved bookmark and update it on exit")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Save the final offset as a bookmark")
	cmd.Flags().BoolVar(&opts.viaDaemon, "via-daemon", false, "Read through the running daemon")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print each read as a JSON object")
	return cmd
}

func resolveLines(cmd *cobra.Command, lines int, cfg *config.Config) int {
	if cmd.Flags().Changed("lines") {
		return lines
	}
	if cfg != nil && cfg.Tail.DefaultLines > 0 {
		return cfg.Tail.DefaultLines
	}
	return 0
}

func runTail(cmd *cobra.Command, ctx *commandContext, path string, opts tailOptions) error {
	cfg := ctx.configValue()
	runCtx := cliContext(cmd)
	if opts.follow {
		var cancel context.CancelFunc
		runCtx, cancel = signal.NotifyContext(runCtx, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
	}

	var source tailSource
	if opts.viaDaemon {
		client, err := ctx.dialClient()
		if err != nil {
			return err
		}
		defer client.Close()
		source = daemonTail{client: client}
	} else {
		local, err := newLocalTail(ctx, cfg)
		if err != nil {
			return err
		}
		source = local
	}

	var store *cursors.Store
	if opts.resume || opts.save {
		var err error
		store, err = cursors.Open(cfg)
		if err != nil {
			return fmt.Errorf("open cursor store: %w", err)
		}
		defer store.Close()
	}

	out := cmd.OutOrStdout()
	offset := opts.offset
	explicitOffset := cmd.Flags().Changed("offset")
	if opts.resume && !explicitOffset {
		saved, ok, err := store.Get(runCtx, path)
		if err != nil {
			return err
		}
		if ok {
			offset = saved.Offset
			explicitOffset = true
		}
	}

	if !explicitOffset && opts.lines > 0 {
		resp, err := source.last(runCtx, path, opts.lines)
		if err != nil {
			return err
		}
		if err := printLines(cmd, out, resp, opts.json); err != nil {
			return err
		}
		offset = resp.Offset
	} else {
		resp, err := source.chunk(runCtx, path, offset, opts.follow)
		if err != nil {
			return err
		}
		if err := printChunk(cmd, out, resp, opts.json); err != nil {
			return err
		}
		offset = resp.Length
	}

	if opts.follow {
		final, err := source.follow(runCtx, path, offset, cfg.PollInterval(), func(resp api.TailResponse) error {
			return printChunk(cmd, out, resp, opts.json)
		})
		offset = final
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	if store != nil {
		// The run context may already be cancelled by the interrupt.
		if err := store.Save(context.Background(), path, offset); err != nil {
			return err
		}
	}
	return nil
}

func printLines(cmd *cobra.Command, out io.Writer, resp api.TailLinesResponse, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, resp)
	}
	if len(resp.Lines) == 0 {
		return nil
	}
	text := strings.Join(resp.Lines, "\n")
	if !resp.Partial {
		text += "\n"
	}
	_, err := io.WriteString(out, text)
	return err
}

func printChunk(cmd *cobra.Command, out io.Writer, resp api.TailResponse, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, resp)
	}
	_, err := io.WriteString(out, resp.Text)
	return err
}
