package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError is returned for transport failures, non-2xx responses and
// response bodies that are not well-formed JSON.
type NetworkError struct {
	Operation  string
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s %s returned status %d: %v", e.Operation, e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Operation, e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrMalformedBody    = errors.New("malformed response body")
)

// IsNotFound reports whether err is a NetworkError for a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode extracts the HTTP status from a NetworkError, or 0.
func StatusCode(err error) int {
	var nerr *NetworkError
	if errors.As(err, &nerr) {
		return nerr.StatusCode
	}
	return 0
}
