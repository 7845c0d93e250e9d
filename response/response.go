package response

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/valyala/bytebufferpool"

	"github.com/sleipnir-web/sleipnir/headers"
)

var bodyPool bytebufferpool.Pool

// Response is the outbound message a handler fills in. The dispatcher
// allocates one per dispatch, initialized to 200 with empty body and default
// headers; handlers mutate it in place and the transport serializes it after
// the handler returns.
type Response struct {
	StatusCode StatusCode
	Headers    *headers.Headers

	body     *bytebufferpool.ByteBuffer
	stream   io.Reader
	redirect string
}

// New creates a fresh response with a pooled body buffer. Call Release once
// the response has been written out.
func New() *Response {
	return &Response{
		StatusCode: StatusOK,
		Headers:    headers.NewHeaders(),
		body:       bodyPool.Get(),
	}
}

// Release returns the body buffer to the pool and closes a streaming body if
// it owns one. The response must not be used afterwards.
func (r *Response) Release() {
	if r.body != nil {
		bodyPool.Put(r.body)
		r.body = nil
	}
	if closer, ok := r.stream.(io.Closer); ok {
		closer.Close()
	}
	r.stream = nil
}

// Reset returns the response to its dispatch-time default: 200, no headers,
// empty body. Used when a failed handler may have left it half-written.
func (r *Response) Reset() *Response {
	r.StatusCode = StatusOK
	r.Headers = headers.NewHeaders()
	if r.body != nil {
		r.body.Reset()
	}
	r.stream = nil
	r.redirect = ""
	return r
}

// SetStatus sets the response status code.
func (r *Response) SetStatus(code StatusCode) *Response {
	r.StatusCode = code
	return r
}

// SetHeader replaces a header value.
func (r *Response) SetHeader(key, value string) *Response {
	r.Headers.Set(key, value)
	return r
}

// AddHeader appends a header value.
func (r *Response) AddHeader(key, value string) *Response {
	r.Headers.Add(key, value)
	return r
}

// Write appends to the body buffer, implementing io.Writer.
func (r *Response) Write(p []byte) (int, error) {
	return r.body.Write(p)
}

// WriteString appends a string to the body buffer.
func (r *Response) WriteString(s string) *Response {
	r.body.WriteString(s)
	return r
}

// Text replaces the body with a plain-text payload.
func (r *Response) Text(body string) *Response {
	r.body.Reset()
	r.body.WriteString(body)
	r.Headers.Set("content-type", "text/plain")
	return r
}

// HTML replaces the body with an HTML payload.
func (r *Response) HTML(body string) *Response {
	r.body.Reset()
	r.body.WriteString(body)
	r.Headers.Set("content-type", "text/html")
	return r
}

// JSON replaces the body with the JSON encoding of data.
func (r *Response) JSON(data any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	r.body.Reset()
	r.body.Write(encoded)
	r.Headers.Set("content-type", "application/json")
	return nil
}

// SetBodyStream makes the body a streaming producer instead of the buffer.
// The stream is drained during serialization.
func (r *Response) SetBodyStream(stream io.Reader) *Response {
	r.stream = stream
	return r
}

// Redirect marks the response as a redirect to path. The dispatcher turns it
// into a 301 with a Location header after the handler returns.
func (r *Response) Redirect(path string) *Response {
	r.redirect = path
	return r
}

// RedirectPath returns the path set by Redirect, or "".
func (r *Response) RedirectPath() string {
	return r.redirect
}

// BodyBytes exposes the buffered body. Not valid for streaming responses.
func (r *Response) BodyBytes() []byte {
	if r.body == nil {
		return nil
	}
	return r.body.B
}

// DropBody discards the body while keeping status and headers, used for HEAD
// responses served by GET handlers.
func (r *Response) DropBody() *Response {
	if r.body != nil {
		r.body.Reset()
	}
	if closer, ok := r.stream.(io.Closer); ok {
		closer.Close()
	}
	r.stream = nil
	return r
}

// Send serializes the response: status line, headers, then body. The
// content-length header is derived from the buffered body unless a streaming
// body or an explicit value is set.
func (r *Response) Send(w io.Writer) error {
	rw := newWriter(w)

	if err := rw.writeStatusLine(r.StatusCode); err != nil {
		return err
	}

	if r.stream == nil && !r.Headers.Has("content-length") {
		r.Headers.Set("content-length", strconv.Itoa(len(r.BodyBytes())))
	}
	if err := rw.writeHeaders(r.Headers); err != nil {
		return err
	}

	if r.stream != nil {
		return rw.writeBody(r.stream)
	}
	if len(r.BodyBytes()) == 0 {
		return nil
	}
	return rw.writeBodyBytes(r.BodyBytes())
}
