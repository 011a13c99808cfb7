package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// maxLineBytes bounds one newline-delimited message on stdio.
const maxLineBytes = 4 << 20

// errLineTooLong marks a message that exceeded the line limit. The rest of
// the line is discarded and the transport keeps reading.
var errLineTooLong = errors.New("line exceeds maximum message size")

// StdioTransport answers newline-delimited JSON-RPC messages on a reader and
// writes one response line per request.
type StdioTransport struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
	maxLine    int

	mu  sync.Mutex
	out io.Writer
}

// NewStdioTransport creates a transport writing responses to out.
func NewStdioTransport(d *Dispatcher, out io.Writer, logger *slog.Logger) *StdioTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &StdioTransport{dispatcher: d, out: out, logger: logger, maxLine: maxLineBytes}
}

// Serve reads messages from in until EOF or ctx is cancelled. An oversized
// line is answered with an Invalid Request error and does not end the session.
func (t *StdioTransport) Serve(ctx context.Context, in io.Reader) error {
	reader := bufio.NewReaderSize(in, 64*1024)

	t.logger.Info("stdio transport ready")
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		raw, err := t.readLine(reader)
		if errors.Is(err, errLineTooLong) {
			t.logger.Warn("rejecting oversized stdio message", "limit_bytes", t.maxLine)
			if werr := t.write(errorResponse(nil, mcp.INVALID_REQUEST, "Invalid Request: message too large", nil)); werr != nil {
				return werr
			}
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("stdio read failed: %w", err)
		}

		if line := bytes.TrimSpace(raw); len(line) > 0 {
			if resp := t.dispatcher.Handle(ctx, line); resp != nil {
				if werr := t.write(resp); werr != nil {
					return werr
				}
			}
		}

		if errors.Is(err, io.EOF) {
			t.logger.Info("stdin closed, stopping stdio transport")
			return nil
		}
	}
}

// readLine returns the next line without its newline. When the line is longer
// than maxLine the remainder is drained and errLineTooLong is returned.
func (t *StdioTransport) readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			n := len(line) + len(chunk)
			if bytes.HasSuffix(chunk, []byte("\n")) {
				n--
			}
			if n > t.maxLine {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case tooLong && (err == nil || errors.Is(err, io.EOF)):
			return nil, errLineTooLong
		default:
			return bytes.TrimSuffix(line, []byte("\n")), err
		}
	}
}

func (t *StdioTransport) write(resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		t.logger.Error("failed to marshal response", "error", err)
		data, _ = json.Marshal(errorResponse(resp.ID, mcp.INTERNAL_ERROR, "Internal error", nil))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("stdio write failed: %w", err)
	}
	return nil
}
