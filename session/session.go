package session

import (
	"sync"
	"time"
)

// Session is connection- or token-scoped storage for arbitrary handler-owned
// state. Values are type-erased on insert and checked against the requested
// type on retrieval, so a wrong-type read is a reported error instead of a
// corrupted value. Sessions are owned by their Store; handlers get borrowed
// access for the duration of one dispatch.
type Session struct {
	id string

	// mu guards the value map and expiry fields for individual operations.
	mu        sync.Mutex
	values    map[string]any
	expiresAt time.Time
	autoRenew bool
	lifetime  time.Duration

	// gate serializes entire dispatches against this session, so two
	// concurrent requests sharing a token never interleave their
	// read-modify-write cycles. Held only while a handler runs.
	gate sync.Mutex
}

func newSession(id string, lifetime time.Duration) *Session {
	return &Session{
		id:        id,
		values:    make(map[string]any),
		expiresAt: time.Now().Add(lifetime),
		autoRenew: true,
		lifetime:  lifetime,
	}
}

// ID returns the session's opaque token.
func (s *Session) ID() string {
	return s.id
}

// Get retrieves the value stored under key as type T. It fails with
// ErrKeyNotFound when the key is absent and with ErrTypeMismatch when the
// stored value was set with a different type.
func Get[T any](s *Session, key string) (T, error) {
	var zero T

	s.mu.Lock()
	value, ok := s.values[key]
	s.mu.Unlock()

	if !ok {
		return zero, ErrKeyNotFound
	}

	typed, ok := value.(T)
	if !ok {
		return zero, ErrTypeMismatch
	}
	return typed, nil
}

// Set stores a value under key, replacing any previous value regardless of
// its type.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Remove deletes the key. It reports ErrKeyNotFound when the key is absent.
func (s *Session) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return ErrKeyNotFound
	}
	delete(s.values, key)
	return nil
}

// Keys returns the stored keys in no particular order.
func (s *Session) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of stored entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// ExpiresAt returns the session's current expiration time.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// SetExpiry pins the expiration time and turns off automatic lifetime
// renewal.
func (s *Session) SetExpiry(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRenew = false
	s.expiresAt = at
}

// AutoRenew toggles lifetime renewal on access.
func (s *Session) AutoRenew(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRenew = enabled
}

// Touch extends the session's lifetime when auto-renewal is on.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.autoRenew {
		s.expiresAt = time.Now().Add(s.lifetime)
	}
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.expiresAt.After(now)
}

// Acquire takes the session's dispatch gate. The dispatcher holds it for
// exactly the duration of one handler invocation.
func (s *Session) Acquire() {
	s.gate.Lock()
}

// Release frees the dispatch gate.
func (s *Session) Release() {
	s.gate.Unlock()
}
