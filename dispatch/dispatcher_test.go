package dispatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleipnir-web/sleipnir/request"
	"github.com/sleipnir-web/sleipnir/response"
	"github.com/sleipnir-web/sleipnir/router"
	"github.com/sleipnir-web/sleipnir/session"
)

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return New(router.NewRouter(), session.NewStore())
}

func TestDispatchMatchedRoute(t *testing.T) {
	d := newDispatcher(t)
	require.NoError(t, d.Router().Get("/items/:id/edit", func(r *request.Request, w *response.Response, s *session.Session) {
		w.Text("editing " + r.PathParams["id"])
	}))

	resp := d.Dispatch(request.New(request.GET, "/items/42/edit"))
	defer resp.Release()

	assert.Equal(t, response.StatusOK, resp.StatusCode)
	assert.Equal(t, "editing 42", string(resp.BodyBytes()))
	assert.NotEmpty(t, resp.Headers.Get(request.SessionTokenHeader))
}

func TestDispatchNotFound(t *testing.T) {
	d := newDispatcher(t)

	resp := d.Dispatch(request.New(request.GET, "/nowhere"))
	defer resp.Release()
	assert.Equal(t, response.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", string(resp.BodyBytes()))
}

func TestDispatchCustomNotFound(t *testing.T) {
	d := newDispatcher(t)
	d.NotFound(func(r *request.Request, w *response.Response, s *session.Session) {
		w.SetStatus(response.StatusNotFound).Text("lost: " + r.Path)
	})

	resp := d.Dispatch(request.New(request.GET, "/nowhere"))
	defer resp.Release()
	assert.Equal(t, "lost: /nowhere", string(resp.BodyBytes()))
}

func TestDispatchMethodNotAllowed(t *testing.T) {
	d := newDispatcher(t)
	require.NoError(t, d.Router().Post("/submit", func(r *request.Request, w *response.Response, s *session.Session) {}))

	resp := d.Dispatch(request.New(request.GET, "/submit"))
	defer resp.Release()
	assert.Equal(t, response.StatusMethodNotAllowed, resp.StatusCode)
}

func TestDispatchHandlerPanic(t *testing.T) {
	d := newDispatcher(t)
	require.NoError(t, d.Router().Get("/boom", func(r *request.Request, w *response.Response, s *session.Session) {
		w.Text("partial output")
		panic("boom")
	}))
	require.NoError(t, d.Router().Get("/fine", func(r *request.Request, w *response.Response, s *session.Session) {
		w.Text("still serving")
	}))

	resp := d.Dispatch(request.New(request.GET, "/boom"))
	assert.Equal(t, response.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal Server Error", string(resp.BodyBytes()))
	resp.Release()

	// the failure is confined to that request
	resp = d.Dispatch(request.New(request.GET, "/fine"))
	assert.Equal(t, response.StatusOK, resp.StatusCode)
	assert.Equal(t, "still serving", string(resp.BodyBytes()))
	resp.Release()
}

func TestDispatchHeadStripsBody(t *testing.T) {
	d := newDispatcher(t)
	require.NoError(t, d.Router().Get("/page", func(r *request.Request, w *response.Response, s *session.Session) {
		w.Text("page body")
	}))

	resp := d.Dispatch(request.New(request.HEAD, "/page"))
	defer resp.Release()
	assert.Equal(t, response.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.BodyBytes())
	assert.Equal(t, "9", resp.Headers.Get("content-length"))
}

func TestDispatchRedirect(t *testing.T) {
	d := newDispatcher(t)
	require.NoError(t, d.Router().Get("/old", func(r *request.Request, w *response.Response, s *session.Session) {
		w.Redirect("new/place")
	}))

	resp := d.Dispatch(request.New(request.GET, "/old"))
	defer resp.Release()
	assert.Equal(t, response.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/new/place", resp.Headers.Get("location"))
}

func TestDispatchAuthGate(t *testing.T) {
	d := newDispatcher(t)
	require.NoError(t, d.Router().Get("/secret", func(r *request.Request, w *response.Response, s *session.Session) {
		w.Text("classified")
	}))
	d.Auth(func(r *request.Request) bool {
		return r.Headers.Get("authorization") != ""
	})

	resp := d.Dispatch(request.New(request.GET, "/secret"))
	assert.Equal(t, response.StatusForbidden, resp.StatusCode)
	resp.Release()

	req := request.New(request.GET, "/secret")
	req.Headers.Add("Authorization", "Bearer token")
	resp = d.Dispatch(req)
	assert.Equal(t, "classified", string(resp.BodyBytes()))
	resp.Release()
}

func TestDispatchMiddlewareOrder(t *testing.T) {
	d := newDispatcher(t)
	var calls []string

	tag := func(name string) router.Middleware {
		return func(next router.Handler) router.Handler {
			return func(r *request.Request, w *response.Response, s *session.Session) {
				calls = append(calls, name)
				next(r, w, s)
			}
		}
	}

	d.Use(tag("outer"), tag("inner"))
	require.NoError(t, d.Router().Get("/mw", func(r *request.Request, w *response.Response, s *session.Session) {
		calls = append(calls, "handler")
	}))

	resp := d.Dispatch(request.New(request.GET, "/mw"))
	resp.Release()
	assert.Equal(t, []string{"outer", "inner", "handler"}, calls)
}

func TestSessionStateAcrossDispatches(t *testing.T) {
	d := newDispatcher(t)
	require.NoError(t, d.Router().Get("/count", func(r *request.Request, w *response.Response, s *session.Session) {
		n, err := session.Get[int](s, "counter")
		if err != nil {
			// first visit
			n = 0
		}
		s.Set("counter", n+1)
	}))

	first := d.Dispatch(request.New(request.GET, "/count"))
	token := first.Headers.Get(request.SessionTokenHeader)
	require.NotEmpty(t, token)
	first.Release()

	req := request.New(request.GET, "/count")
	req.Headers.Add("X-Session-Token", token)
	second := d.Dispatch(req)
	assert.Equal(t, token, second.Headers.Get(request.SessionTokenHeader))
	second.Release()

	n, err := session.GetFrom[int](d.Sessions(), token, "counter")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestConcurrentSameSessionSerializes(t *testing.T) {
	d := newDispatcher(t)
	require.NoError(t, d.Router().Get("/inc", func(r *request.Request, w *response.Response, s *session.Session) {
		n, err := session.Get[int](s, "n")
		if err != nil {
			n = 0
		}
		s.Set("n", n+1)
	}))

	sess := d.Sessions().New()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := request.New(request.GET, "/inc")
			req.Headers.Add("X-Session-Token", sess.ID())
			d.Dispatch(req).Release()
		}()
	}
	wg.Wait()

	n, err := session.Get[int](sess, "n")
	require.NoError(t, err)
	assert.Equal(t, 50, n, "same-session dispatches must not lose updates")
}

func TestConcurrentDistinctSessions(t *testing.T) {
	d := newDispatcher(t)
	require.NoError(t, d.Router().Get("/set", func(r *request.Request, w *response.Response, s *session.Session) {
		s.Set("who", s.ID())
	}))

	a := d.Sessions().New()
	b := d.Sessions().New()

	var wg sync.WaitGroup
	for _, sess := range []*session.Session{a, b} {
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				req := request.New(request.GET, "/set")
				req.Headers.Add("X-Session-Token", sess.ID())
				d.Dispatch(req).Release()
			}()
		}
	}
	wg.Wait()

	whoA, err := session.Get[string](a, "who")
	require.NoError(t, err)
	whoB, err := session.Get[string](b, "who")
	require.NoError(t, err)
	assert.Equal(t, a.ID(), whoA)
	assert.Equal(t, b.ID(), whoB)
}

func TestPanicLeavesRouteTableUsable(t *testing.T) {
	d := newDispatcher(t)
	require.NoError(t, d.Router().Get("/boom", func(r *request.Request, w *response.Response, s *session.Session) {
		panic("boom")
	}))

	for range 3 {
		resp := d.Dispatch(request.New(request.GET, "/boom"))
		assert.Equal(t, response.StatusInternalServerError, resp.StatusCode)
		resp.Release()
	}

	// registration still works after failures
	assert.NoError(t, d.Router().Get("/later", func(r *request.Request, w *response.Response, s *session.Session) {}))
}
