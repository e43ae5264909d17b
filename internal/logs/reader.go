package logs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"auditdesk/internal/logging"
	"auditdesk/internal/services"
)

const component = "logs"

// DecodePolicy controls how bytes that are not valid UTF-8 are handled.
type DecodePolicy string

const (
	// DecodeStrict rejects invalid UTF-8 with services.ErrDecode.
	DecodeStrict DecodePolicy = "strict"
	// DecodeReplace substitutes U+FFFD for each invalid sequence.
	DecodeReplace DecodePolicy = "replace"
)

// ParseDecodePolicy maps a config value to a DecodePolicy. Empty means strict.
func ParseDecodePolicy(value string) (DecodePolicy, error) {
	switch DecodePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", DecodeStrict:
		return DecodeStrict, nil
	case DecodeReplace:
		return DecodeReplace, nil
	default:
		return "", fmt.Errorf("unknown decode policy %q", value)
	}
}

// TailChunk is the result of one incremental read. Length is the next offset.
type TailChunk struct {
	Text   string `json:"text"`
	Length uint64 `json:"length"`
}

// Reader performs tail reads with a fixed decode policy. It holds no
// per-file state and is safe for concurrent use.
type Reader struct {
	policy DecodePolicy
	logger *slog.Logger
}

// NewReader constructs a Reader. An unknown policy falls back to strict.
func NewReader(policy DecodePolicy, logger *slog.Logger) *Reader {
	if policy != DecodeReplace {
		policy = DecodeStrict
	}
	return &Reader{policy: policy, logger: logging.NewComponentLogger(logger, component)}
}

// Policy reports the reader's decode policy.
func (r *Reader) Policy() DecodePolicy {
	return r.policy
}

// ReadFrom reads path from offset using the strict decode policy.
func ReadFrom(path string, offset uint64) (TailChunk, error) {
	return NewReader(DecodeStrict, nil).ReadChunk(path, offset)
}

// ReadChunk returns the text appended to path since offset and the file
// length observed by this call.
//
// An offset at or beyond the current length returns ("", length) without
// error. Otherwise at most length-offset bytes are read, so bytes appended
// after the length was observed are left for the next call and
// offset+len(bytes) always equals the returned Length. A file that shrinks
// during the read reports the shorter length.
func (r *Reader) ReadChunk(path string, offset uint64) (TailChunk, error) {
	data, length, err := r.readBytes(path, offset)
	if err != nil {
		return TailChunk{}, err
	}
	text, err := r.decode(data)
	if err != nil {
		return TailChunk{}, services.Wrap(services.ErrDecode, component, "decode", fmt.Sprintf("bytes %d-%d are not valid UTF-8", offset, length), err)
	}
	return TailChunk{Text: text, Length: length}, nil
}

// ReadSettledChunk is ReadChunk for a file that may still be mid-write: a
// trailing UTF-8 sequence that is incomplete but not invalid is left out and
// Length stops before it, so the next call picks it up once the writer has
// finished it. Invalid bytes still fail under the strict policy.
func (r *Reader) ReadSettledChunk(path string, offset uint64) (TailChunk, error) {
	data, length, err := r.readBytes(path, offset)
	if err != nil {
		return TailChunk{}, err
	}
	if cut := len(data) - incompleteSuffix(data); cut < len(data) {
		data = data[:cut]
		length = offset + uint64(cut)
	}
	text, err := r.decode(data)
	if err != nil {
		return TailChunk{}, services.Wrap(services.ErrDecode, component, "decode", fmt.Sprintf("bytes %d-%d are not valid UTF-8", offset, length), err)
	}
	return TailChunk{Text: text, Length: length}, nil
}

// readBytes returns the raw bytes between offset and the observed length.
func (r *Reader) readBytes(path string, offset uint64) ([]byte, uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrIO, component, "open", "open log file", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, services.Wrap(services.ErrIO, component, "stat", "stat log file", err)
	}
	if info.IsDir() {
		return nil, 0, services.Wrap(services.ErrIO, component, "stat", fmt.Sprintf("log path %q is a directory", path), fs.ErrInvalid)
	}
	length := uint64(info.Size())

	if offset >= length {
		return nil, length, nil
	}

	if _, err := file.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, 0, services.Wrap(services.ErrIO, component, "seek", "seek log file", err)
	}
	want := length - offset
	data, err := io.ReadAll(io.LimitReader(file, int64(want)))
	if err != nil {
		return nil, 0, services.Wrap(services.ErrIO, component, "read", "read log file", err)
	}
	if got := uint64(len(data)); got < want {
		length = offset + got
		r.logger.Debug("log file shrank during read",
			logging.Path(path),
			logging.Offset(offset),
			logging.Uint64("length", length),
		)
	}
	return data, length, nil
}

// incompleteSuffix returns how many trailing bytes of data form the start of
// a UTF-8 sequence that has not been fully written yet.
func incompleteSuffix(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		tail := data[len(data)-i:]
		if utf8.RuneStart(tail[0]) {
			if utf8.FullRune(tail) {
				return 0
			}
			return i
		}
	}
	return 0
}

func (r *Reader) decode(data []byte) (string, error) {
	if r.policy == DecodeReplace {
		out, err := unicode.UTF8.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	out, _, err := transform.Bytes(encoding.UTF8Validator, data)
	if err != nil {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return "", err
		}
		return "", fmt.Errorf("validate utf-8: %w", err)
	}
	return string(out), nil
}
