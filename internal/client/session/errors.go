package session

import "errors"

// ErrMalformedResponse means the server answered 2xx with a payload the
// client could not use.
var ErrMalformedResponse = errors.New("malformed server response")
