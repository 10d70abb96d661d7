// Package apperrors defines the error taxonomy shared by every layer of the
// client: credential failures, failed reads, failed writes, and pre-submit
// validation failures. Each category is a distinct type so callers can route
// on errors.As without string matching.
package apperrors

import "fmt"

// AuthError covers rejected credentials and expired or missing tokens.
// Receiving one means the caller must be routed back through login.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

// FetchError is a failed read: network failure or a non-2xx status on a list
// or get. A "not found" on a list endpoint is not a FetchError, it is an
// empty result.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch failed: %s", e.Message)
}

// MutationError is a failed write (create, status change, update, delete).
// Any optimistic local state must be rolled back when one is returned.
type MutationError struct {
	StatusCode int
	Message    string
}

func (e *MutationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("mutation failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("mutation failed: %s", e.Message)
}

// ValidationError is a client-side required-field or format failure caught
// before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}
