package router

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sleipnir-web/sleipnir/request"
	"github.com/sleipnir-web/sleipnir/response"
	"github.com/sleipnir-web/sleipnir/session"
)

// Handler is a user-supplied route callback. It receives the request, a
// mutable response it writes results into, and borrowed access to the
// client's session for the duration of the call.
type Handler func(*request.Request, *response.Response, *session.Session)

// Middleware wraps a handler with cross-cutting behavior.
type Middleware func(Handler) Handler

// MatchAll is the pseudo-method whose routes answer any request method when
// no explicit method tree matches. It mirrors the "safe fallback" semantics
// of Handle.
const MatchAll = "*"

// Router owns the registered route tables, one trie per request method. It is
// read-mostly: registration takes the write lock, lookups share the read lock,
// and Find never mutates the tables.
type Router struct {
	mu         sync.RWMutex
	trees      map[string]*trieNode
	signatures map[string]struct{}
}

// NewRouter creates an empty route table.
func NewRouter() *Router {
	return &Router{
		trees:      make(map[string]*trieNode),
		signatures: make(map[string]struct{}),
	}
}

// Register adds a route for the given method and pattern. Registering a
// second pattern that is structurally identical to an existing one (same
// segment shapes, parameter names aside) fails with ErrDuplicateRoute and
// leaves the table unchanged.
func (r *Router) Register(method, pattern string, handler Handler) error {
	if method == "" {
		return fmt.Errorf("%w: empty method", ErrInvalidPattern)
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler for %q", ErrInvalidPattern, pattern)
	}

	segments, err := parsePattern(pattern)
	if err != nil {
		return err
	}

	method = strings.ToUpper(method)
	key := method + " /" + patternSignature(segments)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.signatures[key]; exists {
		return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, pattern)
	}

	tree, ok := r.trees[method]
	if !ok {
		tree = newTrieNode()
		r.trees[method] = tree
	}
	tree.insert(segments, handler)
	r.signatures[key] = struct{}{}
	return nil
}

// Get registers a new GET route.
func (r *Router) Get(pattern string, handler Handler) error {
	return r.Register("GET", pattern, handler)
}

// Post registers a new POST route.
func (r *Router) Post(pattern string, handler Handler) error {
	return r.Register("POST", pattern, handler)
}

// Put registers a new PUT route.
func (r *Router) Put(pattern string, handler Handler) error {
	return r.Register("PUT", pattern, handler)
}

// Patch registers a new PATCH route.
func (r *Router) Patch(pattern string, handler Handler) error {
	return r.Register("PATCH", pattern, handler)
}

// Delete registers a new DELETE route.
func (r *Router) Delete(pattern string, handler Handler) error {
	return r.Register("DELETE", pattern, handler)
}

// Options registers a new OPTIONS route.
func (r *Router) Options(pattern string, handler Handler) error {
	return r.Register("OPTIONS", pattern, handler)
}

// Head registers a new HEAD route.
func (r *Router) Head(pattern string, handler Handler) error {
	return r.Register("HEAD", pattern, handler)
}

// Handle registers a route matching every request method. Explicit method
// routes for the same path win over it.
func (r *Router) Handle(pattern string, handler Handler) error {
	return r.Register(MatchAll, pattern, handler)
}

// Find resolves a request method and path to a handler and its parameter
// bindings. Lookup order: the method's own tree, then GET for HEAD requests
// (the dispatcher strips the body), then the match-all tree. Find is
// deterministic and never mutates the table.
func (r *Router) Find(method request.MethodType, path string) (Handler, map[string]string, bool) {
	segments := splitPath(path)
	params := make(map[string]string)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if tree, ok := r.trees[string(method)]; ok {
		if handler := tree.match(segments, params); handler != nil {
			return handler, params, true
		}
	}

	if method == request.HEAD {
		if tree, ok := r.trees[string(request.GET)]; ok {
			if handler := tree.match(segments, params); handler != nil {
				return handler, params, true
			}
		}
	}

	if tree, ok := r.trees[MatchAll]; ok {
		if handler := tree.match(segments, params); handler != nil {
			return handler, params, true
		}
	}

	return nil, nil, false
}

// HasOtherMethod reports whether the path is served under some method other
// than the given one, which the dispatcher turns into a 405 response.
func (r *Router) HasOtherMethod(method request.MethodType, path string) bool {
	segments := splitPath(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for m, tree := range r.trees {
		if m == string(method) || m == MatchAll {
			// skip running trie search against already tried methods
			continue
		}
		if tree.match(segments, make(map[string]string)) != nil {
			return true
		}
	}
	return false
}
