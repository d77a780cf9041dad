package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/docsrag/internal/core/domain"
)

// invalidKeyMarkers appear in the error body when the API rejects a key
// with 400 instead of 401.
var invalidKeyMarkers = []string{"API_KEY_INVALID", "API key not valid"}

// IsAuthError reports whether err means the API key was rejected.
func IsAuthError(err error) bool {
	if errors.Is(err, domain.ErrLLMAuth) {
		return true
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden {
		return true
	}
	for _, marker := range invalidKeyMarkers {
		if strings.Contains(gerr.Body, marker) || strings.Contains(gerr.Message, marker) {
			return true
		}
	}
	return false
}

// IsRateLimited reports whether err is a quota or rate limit rejection.
func IsRateLimited(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return false
}

// ClassifyError wraps err with the domain error callers match on:
// domain.ErrLLMAuth for a rejected key, domain.ErrLLMUnavailable otherwise.
// The original error stays in the chain.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if IsAuthError(err) {
		if errors.Is(err, domain.ErrLLMAuth) {
			return err
		}
		return fmt.Errorf("gemini: %w: %w", domain.ErrLLMAuth, err)
	}
	if errors.Is(err, domain.ErrLLMUnavailable) || errors.Is(err, domain.ErrLLMResponse) {
		return err
	}
	return fmt.Errorf("gemini: %w: %w", domain.ErrLLMUnavailable, err)
}
