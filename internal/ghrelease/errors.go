package ghrelease

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoMatchingRelease indicates the registry has no release satisfying
// the request: an unknown exact tag, or an empty candidate set after
// filtering malformed tags in latest mode.
var ErrNoMatchingRelease = errors.New("no matching release")

// ErrAssetNotFound indicates the resolved release has no asset with the
// expected platform-specific name.
var ErrAssetNotFound = errors.New("asset not found")

// ErrorType classifies registry failures for better messages.
type ErrorType int

const (
	// ErrTypeNetwork is a generic transport failure.
	ErrTypeNetwork ErrorType = iota
	// ErrTypeNotFound is an HTTP 404 from the registry.
	ErrTypeNotFound
	// ErrTypeRateLimit is an exhausted API rate limit.
	ErrTypeRateLimit
	// ErrTypeValidation is malformed registry data (e.g. an unparseable
	// tag on the stable release).
	ErrTypeValidation
)

// ResolverError provides structured information about a registry failure.
type ResolverError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ResolverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("release resolver: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("release resolver: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ResolverError) Unwrap() error {
	return e.Err
}

// RateLimitError reports an exhausted GitHub API rate limit with enough
// detail for the user to act on it.
type RateLimitError struct {
	Limit         int
	Remaining     int
	ResetTime     time.Time
	Authenticated bool
	Err           error
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	wait := time.Until(e.ResetTime).Round(time.Second)
	if e.Authenticated {
		return fmt.Sprintf("GitHub API rate limit exceeded (%d/%d), resets in %v",
			e.Remaining, e.Limit, wait)
	}
	return fmt.Sprintf("GitHub API rate limit exceeded (%d/%d), resets in %v; "+
		"set the github-token input to raise the limit", e.Remaining, e.Limit, wait)
}

// Unwrap returns the underlying error for error chain support.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}
