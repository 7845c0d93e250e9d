package headers

import "errors"

// ErrMalformedHeader is returned when a header field line is malformed.
var ErrMalformedHeader = errors.New("malformed header line")
