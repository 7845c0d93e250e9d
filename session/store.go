package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLifetime is how long a session lives without renewal.
const DefaultLifetime = 48 * time.Hour

// minSweepPeriod caps how aggressively the background sweeper may run.
const minSweepPeriod = time.Minute

// Store owns every live session. Sessions are created on first reference,
// read and mutated during dispatch, and destroyed by explicit invalidation,
// expiry, or a sweep. Unrelated sessions proceed fully in parallel; only the
// store's own map access is synchronized here.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	lifetime time.Duration
}

// NewStore creates an empty session store with the default lifetime.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		lifetime: DefaultLifetime,
	}
}

// SetDefaultLifetime changes the lifetime applied to sessions created from
// now on.
func (st *Store) SetDefaultLifetime(lifetime time.Duration) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.lifetime = lifetime
}

// New creates a session under a fresh random token and registers it.
func (st *Store) New() *Session {
	return st.NewWithID(uuid.NewString())
}

// NewWithID creates a session under the caller's token. An existing session
// with the same token is replaced, which also protects against fixation on
// guessed tokens.
func (st *Store) NewWithID(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := newSession(id, st.lifetime)
	st.sessions[id] = s
	return s
}

// ByID returns the live session for the token. Unknown and expired tokens
// both report ErrSessionNotFound; expired sessions are dropped on the way.
func (st *Store) ByID(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	if s.expired(time.Now()) {
		st.mu.Lock()
		delete(st.sessions, id)
		st.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	s.Touch()
	return s, nil
}

// FromOrNew returns the session for the token, creating a fresh one when the
// token is empty, unknown, or expired.
func (st *Store) FromOrNew(id string) *Session {
	if id != "" {
		if s, err := st.ByID(id); err == nil {
			return s
		}
	}
	return st.New()
}

// Invalidate destroys the session and all its entries.
func (st *Store) Invalidate(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	return nil
}

// Len returns the number of live sessions, expired ones included until the
// next sweep.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// GetFrom retrieves a typed value from the identified session, combining
// session lookup and typed key access into the store-level contract.
func GetFrom[T any](st *Store, id, key string) (T, error) {
	s, err := st.ByID(id)
	if err != nil {
		var zero T
		return zero, err
	}
	return Get[T](s, key)
}

// Set stores a value in the identified session.
func (st *Store) Set(id, key string, value any) error {
	s, err := st.ByID(id)
	if err != nil {
		return err
	}
	s.Set(key, value)
	return nil
}

// Remove deletes a key from the identified session.
func (st *Store) Remove(id, key string) error {
	s, err := st.ByID(id)
	if err != nil {
		return err
	}
	return s.Remove(key)
}

// Sweep drops every session expired at the given instant and returns how
// many were removed.
func (st *Store) Sweep(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	var stale []string
	for id, s := range st.sessions {
		if s.expired(now) {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(st.sessions, id)
	}
	return len(stale)
}

// StartSweeper runs a background cleaner that sweeps expired sessions every
// period (clamped to at least one minute). The returned function stops it.
func (st *Store) StartSweeper(period time.Duration) (stop func()) {
	if period < minSweepPeriod {
		period = minSweepPeriod
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				st.Sweep(now)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
