package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownSource indicates a source key that is not in the catalog.
	ErrUnknownSource = errors.New("unknown documentation source")

	// Retrieval Errors.

	// ErrFetchFailed indicates the fetch proxy could not return a page.
	// The crawler treats it as a skipped page, never as a fatal error.
	ErrFetchFailed = errors.New("page fetch failed")

	// ErrStorageUnavailable indicates the key-value store rejected an operation
	// (quota exceeded, storage disabled).
	ErrStorageUnavailable = errors.New("storage unavailable")

	// LLM Errors.

	// ErrLLMUnavailable indicates no API key is configured for the language model.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrLLMAuth indicates the language model rejected the API key.
	ErrLLMAuth = errors.New("LLM authentication failed")

	// ErrLLMResponse indicates the language model answered with something unusable.
	ErrLLMResponse = errors.New("malformed LLM response")

	// ErrGuestLimitReached indicates the shared guest key has no messages left.
	ErrGuestLimitReached = errors.New("guest message limit reached")
)

// FetchError describes a page-level fetch failure.
type FetchError struct {
	// URL is the page that could not be fetched.
	URL string

	// Status is the proxy's HTTP status, zero for transport errors.
	Status int

	// Err is the underlying transport error, if any.
	Err error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: proxy status %d", e.URL, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: failed", e.URL)
}

// Is reports ErrFetchFailed so callers can match any fetch failure.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
