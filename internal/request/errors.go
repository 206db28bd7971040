package request

import (
	"errors"
	"fmt"
)

// ErrNotJSON is returned when a JSON call receives a non-JSON body.
var ErrNotJSON = errors.New("request: response is not JSON")

// TransportError means no HTTP response was received.
type TransportError struct {
	Method  string
	URL     string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("request: %s %s: timed out: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("request: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseError is a server-returned error response (status >= 400).
// Payload is the normalized server body with "message" set to Message.
type ResponseError struct {
	StatusCode int
	Message    string
	Payload    map[string]any
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("request: status %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 ResponseError.
func IsUnauthorized(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.StatusCode == 401
}
