package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound        = errors.New("movie not found in collection")
	ErrAlreadySaved    = errors.New("movie already saved")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidState    = errors.New("invalid oauth state")
	ErrUnsupported     = errors.New("unsupported catalog query")
)

// ValidationError lists request fields that were missing or malformed.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "Missing required fields: " + strings.Join(e.Missing, ", ")
	}
	return "Invalid fields: " + strings.Join(e.Invalid, ", ")
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

// OrNil returns nil when nothing was recorded, so callers can build the error
// field by field and return it unconditionally.
func (e *ValidationError) OrNil() error {
	if e == nil || e.empty() {
		return nil
	}
	return e
}
