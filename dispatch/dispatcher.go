// Package dispatch resolves requests against the route table and invokes the
// matched handler with its session. All failure is absorbed here and turned
// into a response; nothing a handler does can reach the transport layer as an
// error or take down the process.
package dispatch

import (
	"log"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/sleipnir-web/sleipnir/request"
	"github.com/sleipnir-web/sleipnir/response"
	"github.com/sleipnir-web/sleipnir/router"
	"github.com/sleipnir-web/sleipnir/session"
)

// AuthFunc is an optional gatekeeper consulted before routing. Returning
// false denies the request with a 403 without invoking any handler.
type AuthFunc func(*request.Request) bool

var defaultNotFoundHandler router.Handler = func(r *request.Request, w *response.Response, s *session.Session) {
	w.SetStatus(response.StatusNotFound).
		Text(response.GetStatusReason(response.StatusNotFound))
}

// Dispatcher binds a route table to a session store and runs the full
// request lifecycle: session resolution, route matching, handler invocation,
// and failure conversion.
type Dispatcher struct {
	router      *router.Router
	sessions    *session.Store
	notFound    router.Handler
	auth        AuthFunc
	middlewares []router.Middleware
}

// New creates a dispatcher over the given route table and session store.
func New(rt *router.Router, st *session.Store) *Dispatcher {
	return &Dispatcher{
		router:   rt,
		sessions: st,
		notFound: defaultNotFoundHandler,
	}
}

// Router exposes the underlying route table.
func (d *Dispatcher) Router() *router.Router {
	return d.router
}

// Sessions exposes the underlying session store.
func (d *Dispatcher) Sessions() *session.Store {
	return d.sessions
}

// NotFound overrides the handler invoked when no route matches.
func (d *Dispatcher) NotFound(handler router.Handler) {
	d.notFound = handler
}

// Auth installs the gatekeeper function.
func (d *Dispatcher) Auth(fn AuthFunc) {
	d.auth = fn
}

// Use adds middleware applied around every matched handler, outermost first.
func (d *Dispatcher) Use(m ...router.Middleware) {
	d.middlewares = append(d.middlewares, m...)
}

func (d *Dispatcher) chain(h router.Handler) router.Handler {
	for i := len(d.middlewares) - 1; i >= 0; i-- {
		h = d.middlewares[i](h)
	}
	return h
}

// Dispatch runs one request to completion and always produces a response:
// 403 when the gatekeeper denies, 404 via the not-found handler, 405 when the
// path lives under another method, 500 when the handler panics. The caller
// must Release the returned response after writing it out.
func (d *Dispatcher) Dispatch(req *request.Request) *response.Response {
	resp := response.New()

	if d.auth != nil && !d.auth(req) {
		resp.SetStatus(response.StatusForbidden).
			Text(response.GetStatusReason(response.StatusForbidden))
		return resp
	}

	sess := d.sessions.FromOrNew(req.SessionToken())
	resp.SetHeader(request.SessionTokenHeader, sess.ID())

	handler, params, ok := d.router.Find(req.Method, req.Path)
	if !ok {
		if d.router.HasOtherMethod(req.Method, req.Path) {
			resp.SetStatus(response.StatusMethodNotAllowed).
				Text(response.GetStatusReason(response.StatusMethodNotAllowed))
			return resp
		}
		handler = d.notFound
		params = nil
	}

	req.PathParams = params
	d.invoke(d.chain(handler), req, resp, sess)

	if req.Method == request.HEAD {
		// report the length the GET body would have had
		if !resp.Headers.Has("content-length") {
			resp.SetHeader("content-length", strconv.Itoa(len(resp.BodyBytes())))
		}
		resp.DropBody()
	}

	// handlers request redirects declaratively; wire them up here
	if redirect := resp.RedirectPath(); redirect != "" {
		if !strings.HasPrefix(redirect, "/") && !strings.Contains(redirect, "://") {
			redirect = "/" + redirect
		}
		resp.SetStatus(response.StatusMovedPermanently).SetHeader("location", redirect)
	}

	return resp
}

// invoke runs the handler under the session's dispatch gate, so requests
// sharing a session serialize for exactly the handler's duration while other
// sessions proceed in parallel. A panic is confined to this request.
func (d *Dispatcher) invoke(handler router.Handler, req *request.Request, resp *response.Response, sess *session.Session) {
	sess.Acquire()
	defer sess.Release()

	defer func() {
		if r := recover(); r != nil {
			log.Println("recovered from handler panic:", r)
			debug.PrintStack()
			resp.Reset().
				SetHeader(request.SessionTokenHeader, sess.ID()).
				SetStatus(response.StatusInternalServerError).
				Text(response.GetStatusReason(response.StatusInternalServerError))
		}
	}()

	handler(req, resp, sess)
}
