package request

import (
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/sleipnir-web/sleipnir/headers"
)

// MethodType is an enumerated HTTP request method.
type MethodType string

const (
	GET     MethodType = "GET"
	HEAD    MethodType = "HEAD"
	POST    MethodType = "POST"
	PUT     MethodType = "PUT"
	PATCH   MethodType = "PATCH"
	DELETE  MethodType = "DELETE"
	TRACE   MethodType = "TRACE"
	OPTIONS MethodType = "OPTIONS"
)

// Request is the inbound message handed to the dispatcher. It is owned
// exclusively by the dispatch call for its duration and must be treated as
// immutable by handlers; only the dispatcher fills PathParams after route
// matching.
type Request struct {
	Method   MethodType
	Path     string
	RawQuery string
	Query    url.Values
	Headers  *headers.Headers

	// PathParams holds the named parameter bindings of the matched route.
	PathParams map[string]string

	// RemoteAddr is the peer address as reported by the transport.
	RemoteAddr string

	body       []byte
	bodyReader io.Reader
	bodyLoaded bool
	bodyErr    error
}

// New creates an empty request, mainly useful for tests and for transports
// that decode the wire format themselves.
func New(method MethodType, target string) *Request {
	r := &Request{
		Method:  method,
		Headers: headers.NewHeaders(),
		Query:   url.Values{},
	}
	r.setTarget(target)
	return r
}

func (r *Request) setTarget(target string) {
	r.Path = target
	if i := strings.IndexByte(target, '?'); i != -1 {
		r.Path = target[:i]
		r.RawQuery = target[i+1:]
		// invalid query strings degrade to an empty set rather than
		// failing the whole request
		r.Query, _ = url.ParseQuery(r.RawQuery)
	}
	if r.Query == nil {
		r.Query = url.Values{}
	}
}

// Body materializes the request body lazily. The first call reads it from the
// transport; subsequent calls return the cached bytes.
func (r *Request) Body() ([]byte, error) {
	if r.bodyLoaded {
		return r.body, r.bodyErr
	}
	r.bodyLoaded = true

	if r.bodyReader == nil {
		return nil, nil
	}

	length := r.contentLength()
	if length <= 0 {
		return nil, nil
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r.bodyReader, buf); err != nil {
		r.bodyErr = ErrIncompleteRequest
		return nil, r.bodyErr
	}

	r.body = buf
	return r.body, nil
}

// Discard consumes any unread body bytes so a keep-alive connection can move
// on to the next request.
func (r *Request) Discard() error {
	_, err := r.Body()
	return err
}

func (r *Request) contentLength() int {
	cl := r.Headers.Get("content-length")
	if cl == "" {
		return 0
	}
	n, err := strconv.Atoi(cl)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// SessionTokenHeader and SessionTokenCookie name the two places the opaque
// session token is looked for, in that order.
const (
	SessionTokenHeader = "x-session-token"
	SessionTokenCookie = "sid"
)

// SessionToken extracts the opaque session identifier carried by the request,
// or "" when the client presented none.
func (r *Request) SessionToken() string {
	if tok := r.Headers.Get(SessionTokenHeader); tok != "" {
		return tok
	}

	// cookie fallback: "Cookie: a=1; sid=abc; b=2"
	for _, cookie := range r.Headers.Values("cookie") {
		for pair := range strings.SplitSeq(cookie, ";") {
			name, value, found := strings.Cut(strings.TrimSpace(pair), "=")
			if found && strings.EqualFold(name, SessionTokenCookie) {
				return value
			}
		}
	}
	return ""
}
