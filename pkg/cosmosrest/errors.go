package cosmosrest

import (
	"errors"
	"fmt"
	"slices"
)

// TransientNetworkError is a connection, timeout or truncated-body failure. It is safe to retry.
type TransientNetworkError struct {
	URL string
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("transient network error for %s: %v", e.URL, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// ClientHTTPError is a non-2xx response.
type ClientHTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *ClientHTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("unexpected status code %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

// MalformedResponseError is a 2xx response that does not match the expected schema.
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a TransientNetworkError.
func IsTransient(err error) bool {
	var target *TransientNetworkError
	return errors.As(err, &target)
}

// RetryOn returns a retry predicate accepting transient errors and HTTP errors with one of the given status codes.
func RetryOn(statusCodes ...int) func(error) bool {
	return func(err error) bool {
		if IsTransient(err) {
			return true
		}
		var httpErr *ClientHTTPError
		if errors.As(err, &httpErr) {
			return slices.Contains(statusCodes, httpErr.StatusCode)
		}
		return false
	}
}
