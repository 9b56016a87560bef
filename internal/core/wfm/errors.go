package wfm

import (
	"errors"
	"fmt"
)

// Client errors.
var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrIncompleteToken   = errors.New("token response missing access_token, refresh_token or token_type")
	ErrMissingCredential = errors.New("missing credentials")
)

// APIError is a non-200 response from the API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 401
}
