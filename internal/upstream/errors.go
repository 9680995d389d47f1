// Package upstream holds the error types shared by the Clover and HubSpot clients.
package upstream

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of a failed response body is kept on an HTTPError.
const maxErrorBody = 1024

// HTTPError is returned when either platform answers with a non-2xx status.
type HTTPError struct {
	// Body is the (truncated) response body, useful for diagnostics.
	Body string

	// Method is the HTTP method of the failed request.
	Method string

	// Status is the HTTP status code.
	Status int

	// URL is the request URL without credentials.
	URL string
}

// Error implements error.
func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d from %s %s", e.Status, e.Method, e.URL)
	}
	return fmt.Sprintf("unexpected status %d from %s %s: %s", e.Status, e.Method, e.URL, e.Body)
}

// DecodeError is returned when a response body does not have the expected shape.
type DecodeError struct {
	// Err is the underlying parse error, if any.
	Err error

	// Reason describes what was wrong with the body.
	Reason string
}

// Error implements error.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding response: %s: %v", e.Reason, e.Err)
	}
	return "decoding response: " + e.Reason
}

// Unwrap returns the underlying parse error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// CheckStatus is a response validator that turns any non-2xx response into an *HTTPError.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	httpErr := &HTTPError{
		Body:   string(body),
		Status: resp.StatusCode,
	}
	if resp.Request != nil {
		httpErr.Method = resp.Request.Method
		if resp.Request.URL != nil {
			httpErr.URL = resp.Request.URL.Redacted()
		}
	}

	return httpErr
}
