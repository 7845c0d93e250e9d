package router

import "errors"

// ErrDuplicateRoute is returned when a structurally identical (method,
// pattern) pair is already registered.
var ErrDuplicateRoute = errors.New("duplicate route")

// ErrInvalidPattern is returned for malformed route patterns.
var ErrInvalidPattern = errors.New("invalid route pattern")
