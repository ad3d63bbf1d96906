package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation reports a rejected field before anything reaches the store.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Field + ": " + e.Message
}

var (
	// ErrNotInitialized is returned by store operations called before Initialize.
	ErrNotInitialized = errors.New("store client is not initialized")

	// ErrAuthenticationRequired is returned when an owner-scoped operation runs signed out.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrNotFound covers both a missing id and a row hidden by row-level security.
	ErrNotFound = errors.New("record not found")
)

// ConfigurationError reports missing or placeholder store credentials.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "store configuration invalid: missing " + strings.Join(e.Missing, ", ")
}

// NetworkError wraps a failed call to the quote source.
type NetworkError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request %s failed with status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("request %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// SchemaMismatchError is returned once the insert retry budget is spent on unknown columns.
type SchemaMismatchError struct {
	Attempts int
	Dropped  []string
	Err      error
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("insert failed after %d attempts due to schema mismatch (dropped columns: %s): %v",
		e.Attempts, strings.Join(e.Dropped, ", "), e.Err)
}

func (e *SchemaMismatchError) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether err is, or wraps, a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsValidation reports whether err is, or wraps, an ErrValidation.
func IsValidation(err error) bool {
	var ve *ErrValidation
	return errors.As(err, &ve)
}
