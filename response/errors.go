package response

import "errors"

// ErrInvalidWriterState is returned when response parts are written out of order.
var ErrInvalidWriterState = errors.New("invalid writer state")
