package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrMissingCredentials = errors.New("naver credentials not configured")
	ErrNotFound           = errors.New("record not found")
)

// FetchError wraps errors that occur while fetching a page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// PublishError wraps a failure in one step of the publish automation.
type PublishError struct {
	Step string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish step %q: %v", e.Step, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// StoreError wraps errors from the record store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
