package ytsubs

import (
	"ytsubs/api"
	ythttp "ytsubs/http"
	"ytsubs/retry"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, ytsubs.ErrUnresolvable) {
//		fmt.Println("Channel not found")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var backendErr *ytsubs.BackendError
//	if errors.As(err, &backendErr) {
//		fmt.Printf("%s failed for %s: %v\n", backendErr.Op, backendErr.Channel, backendErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// BackendError wraps failures from a backend operation with the backend
	// name, operation and channel involved.
	BackendError = api.BackendError
	// HTTPError carries a non-success status code and the response body.
	HTTPError = ythttp.HTTPError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrUnresolvable indicates the input could not be resolved to a channel id.
	ErrUnresolvable = api.ErrUnresolvable
	// ErrNoFormats indicates the video exposes no playable formats.
	ErrNoFormats = api.ErrNoFormats
	// ErrNoContinuation indicates no continuation token is available.
	ErrNoContinuation = api.ErrNoContinuation
	// ErrRequestFailed indicates an HTTP request failed after any retries.
	ErrRequestFailed = ythttp.ErrRequestFailed
)

// IsRetryable determines if an error should be retried.
func IsRetryable(err error) bool {
	return retry.IsRetryable(err)
}
