package response

import (
	"fmt"
	"io"

	"github.com/sleipnir-web/sleipnir/headers"
)

type writerState string

const (
	stateStatusLine writerState = "status line"
	stateHeaders    writerState = "headers"
	stateBody       writerState = "body"
	stateDone       writerState = "done"
)

func (ws writerState) advance() writerState {
	switch ws {
	case stateStatusLine:
		return stateHeaders
	case stateHeaders:
		return stateBody
	case stateBody:
		return stateDone
	default:
		panic("invalid writer state advance: " + ws)
	}
}

// writer enforces the status-line/headers/body ordering of the wire format.
type writer struct {
	conn  io.Writer
	state writerState
}

func newWriter(conn io.Writer) *writer {
	return &writer{conn: conn, state: stateStatusLine}
}

func (rw *writer) writeStatusLine(statusCode StatusCode) error {
	if rw.state != stateStatusLine {
		return ErrInvalidWriterState
	}
	if _, err := fmt.Fprintf(rw.conn, "HTTP/1.1 %d %s\r\n", statusCode, GetStatusReason(statusCode)); err != nil {
		return err
	}
	rw.state = rw.state.advance()
	return nil
}

func (rw *writer) writeHeaders(h *headers.Headers) error {
	if rw.state != stateHeaders {
		return ErrInvalidWriterState
	}
	for k, v := range h.All() {
		if _, err := fmt.Fprintf(rw.conn, "%s: %s\r\n", k, v); err != nil {
			return err
		}
	}
	if _, err := rw.conn.Write([]byte("\r\n")); err != nil {
		return err
	}
	rw.state = rw.state.advance()
	return nil
}

func (rw *writer) writeBody(b io.Reader) error {
	if rw.state != stateBody {
		return ErrInvalidWriterState
	}
	if _, err := io.Copy(rw.conn, b); err != nil {
		return err
	}
	rw.state = rw.state.advance()
	return nil
}

func (rw *writer) writeBodyBytes(b []byte) error {
	if rw.state != stateBody {
		return ErrInvalidWriterState
	}
	if _, err := rw.conn.Write(b); err != nil {
		return err
	}
	rw.state = rw.state.advance()
	return nil
}
