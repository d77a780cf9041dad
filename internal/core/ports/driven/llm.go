package driven

import (
	"context"

	"github.com/custodia-labs/docsrag/internal/core/domain"
)

// LLMService submits a conversation to a generative-language model.
// This is an optional service - when nil, the chat agent answers with
// an "unavailable" message and retrieval keeps working.
type LLMService interface {
	// Generate submits the request and returns either text or function calls.
	// Authentication failures wrap domain.ErrLLMAuth.
	Generate(ctx context.Context, req domain.LLMRequest) (*domain.LLMResponse, error)

	// ModelName returns the name of the model being used.
	ModelName() string
}
