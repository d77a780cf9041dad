package driving

import (
	"context"

	"github.com/custodia-labs/docsrag/internal/core/domain"
)

// DocsService retrieves documentation context for free-text queries.
type DocsService interface {
	// GetContext resolves the query's intent, loads or builds the index and
	// returns ranked excerpts. A nil result with a nil error means no
	// documentation context is available for this query.
	// Only context cancellation is reported as an error.
	GetContext(ctx context.Context, query string, observer StatusObserver) (*domain.ContextResult, error)

	// BuildIndex loads or crawls a catalog source and caches it.
	// With refresh set, any cached index is ignored and replaced.
	BuildIndex(ctx context.Context, sourceKey string, refresh bool, observer StatusObserver) (*domain.Index, error)

	// Sources returns the documentation catalog.
	Sources() []domain.KnownSource

	// ClearCache drops the cached index for sourceKey, or every cached index
	// when sourceKey is empty.
	ClearCache(ctx context.Context, sourceKey string) error
}
