package session

import "errors"

// ErrSessionNotFound is returned when the token is unknown or the session
// has expired.
var ErrSessionNotFound = errors.New("session not found")

// ErrKeyNotFound is returned when the session exists but the key does not.
var ErrKeyNotFound = errors.New("session key not found")

// ErrTypeMismatch is returned when a value is retrieved as a type other than
// the one it was stored with.
var ErrTypeMismatch = errors.New("session value type mismatch")
