// Package httpclient provides the HTTP client used to talk to profile indexes.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Client fetches documents over HTTP.
type Client interface {
	// Get fetches url and returns the response body. Non-2xx responses are
	// reported as *HTTPError.
	Get(ctx context.Context, url string) ([]byte, error)
}

// HTTPError is returned for a response with a non-success status code.
type HTTPError struct {
	StatusCode int
	URL        string
	Message    string
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{StatusCode: statusCode, URL: url, Message: message}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// Retryable reports whether repeating the request may succeed.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// StatusCode returns the status code carried by err, or 0 when err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
