package http

import (
	"errors"
	"fmt"
)

// HTTPError indicates a non-2xx response.
type HTTPError struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Body is the response body.
	Body []byte
}

// Error returns a string representation of the HTTP error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.StatusCode)
}

// ErrRequestFailed indicates the request itself failed before a response
// arrived (network error, timeout).
var ErrRequestFailed = errors.New("http request failed")

// StatusCode extracts the status code from an error chain, or 0 when the
// error does not carry one. Backends branch on this for shape fallbacks.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
