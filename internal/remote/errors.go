package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the backend, carrying the
// backend's human-readable message when it supplied one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// HTTPStatus returns the response status. The engines use it to
// classify failures without importing this package.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// IsUnauthorized reports whether err is an expired-session response.
// 419 is the non-standard "authentication timeout" some backends send.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) &&
		(ae.StatusCode == http.StatusUnauthorized || ae.StatusCode == 419)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}
