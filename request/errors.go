package request

import "errors"

var ErrMalformedRequestLine = errors.New("malformed request line")
var ErrIncompleteRequest = errors.New("incomplete request")
