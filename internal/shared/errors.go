package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authorization errors
	ErrAuthCancelled    = fmt.Errorf("authorization cancelled")
	ErrAuthDenied       = fmt.Errorf("authorization denied")
	ErrAuthProvider     = fmt.Errorf("authorization provider error")
	ErrTokenExchange    = fmt.Errorf("token exchange failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")

	// API errors
	ErrAPIRequest = fmt.Errorf("API request failed")

	// Storage errors
	ErrStorageCorrupt     = fmt.Errorf("stored credential is corrupt")
	ErrStorageUnavailable = fmt.Errorf("credential storage unavailable")
	ErrMissingSecretKey   = fmt.Errorf("credential store secret key not set")

	// Input validation errors
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrInvalidFlag  = fmt.Errorf("invalid flag value")
)

// StatusError reports a non-success HTTP response.
//
// Kind is one of [ErrTokenExchange], [ErrRefreshFailed] or [ErrAPIRequest] and is matched by [errors.Is].
// StatusCode is 0 when the request failed before a response arrived, in which case Err holds the cause.
type StatusError struct {
	Kind       error
	StatusCode int
	Body       string
	Err        error
}

// NewStatusError builds a [StatusError] for an HTTP response.
func NewStatusError(kind error, status int, body []byte) *StatusError {
	return &StatusError{Kind: kind, StatusCode: status, Body: string(body)}
}

// NewTransportError builds a [StatusError] for a request that never produced a response.
func NewTransportError(kind, err error) *StatusError {
	return &StatusError{Kind: kind, Err: err}
}

func (e *StatusError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("%v: status %d", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%v: status %d: %s", e.Kind, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == e.Kind
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a [StatusError] that may succeed on retry:
// a transport failure, a 429, or a 5xx.
func IsTransient(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == 0 || se.StatusCode == 429 || se.StatusCode >= 500
}
