package logs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"auditdesk/internal/logging"
	"auditdesk/internal/services"
)

// DefaultFollowInterval is the polling period used when Follow gets a
// non-positive interval.
const DefaultFollowInterval = 250 * time.Millisecond

const maxLineBytes = 1024 * 1024

// LastLines is the result of TailLines. Partial is set when the final line
// has no trailing newline yet, so a follow-up read continues that line.
type LastLines struct {
	Lines   []string
	Offset  uint64
	Partial bool
}

// TailLines returns the last n lines of path and the end offset to resume
// from. n <= 0 returns no lines, only the offset.
func (r *Reader) TailLines(path string, n int) (LastLines, error) {
	file, err := os.Open(path)
	if err != nil {
		return LastLines{}, services.Wrap(services.ErrIO, component, "open", "open log file", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return LastLines{}, services.Wrap(services.ErrIO, component, "stat", "stat log file", err)
	}
	size := uint64(info.Size())
	if n <= 0 || size == 0 {
		return LastLines{Offset: size}, nil
	}

	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil {
		return LastLines{}, services.Wrap(services.ErrIO, component, "read", "read log file", err)
	}

	scanner := bufio.NewScanner(io.LimitReader(file, info.Size()))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	ring := make([]string, n)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % n
		if count < n {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return LastLines{}, services.Wrap(services.ErrIO, component, "read", "read log file", err)
	}

	lines := make([]string, count)
	if count == n {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%n]
		}
	} else {
		copy(lines, ring[:count])
	}

	for i, line := range lines {
		decoded, err := r.decode([]byte(line))
		if err != nil {
			return LastLines{}, services.Wrap(services.ErrDecode, component, "decode", fmt.Sprintf("line %d of tail is not valid UTF-8", i+1), err)
		}
		lines[i] = decoded
	}
	return LastLines{Lines: lines, Offset: size, Partial: count > 0 && last[0] != '\n'}, nil
}

// Follow polls path from offset every interval, calling fn with each
// non-empty chunk, until ctx is cancelled or a read or fn fails. A multi-byte
// character the writer has only partly flushed is held back until it is
// complete. It returns the last offset reached along with ctx.Err() on
// cancellation.
func (r *Reader) Follow(ctx context.Context, path string, offset uint64, interval time.Duration, fn func(TailChunk) error) (uint64, error) {
	if interval <= 0 {
		interval = DefaultFollowInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		chunk, err := r.ReadSettledChunk(path, offset)
		if err != nil {
			return offset, err
		}
		if chunk.Length < offset {
			logging.WarnWithContext(r.logger, "log file truncated; resuming from new end", "log_truncated",
				logging.Path(path),
				logging.Offset(offset),
				logging.Uint64("length", chunk.Length),
				logging.String(logging.FieldImpact, "lines written before the truncation was noticed are skipped"),
				logging.String(logging.FieldErrorHint, "expected after log rotation"),
			)
		}
		if chunk.Text != "" {
			if err := fn(chunk); err != nil {
				return offset, err
			}
		}
		offset = chunk.Length

		select {
		case <-ctx.Done():
			return offset, ctx.Err()
		case <-ticker.C:
		}
	}
}
