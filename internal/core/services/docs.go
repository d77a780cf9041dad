package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
	"github.com/custodia-labs/docsrag/internal/logger"
)

// Ensure DocsService implements the interface.
var _ driving.DocsService = (*DocsService)(nil)

// DocsService turns a free-text query into ranked documentation excerpts.
type DocsService struct {
	resolver *IntentResolver
	crawler  *Crawler
	cache    *IndexCache
	scorer   *Scorer
	bus      *StatusBus
	now      func() time.Time
}

// DocsOption configures a DocsService.
type DocsOption func(*DocsService)

// WithCatalog replaces the documentation catalog used for intent
// resolution and the named-source boost.
func WithCatalog(catalog []domain.KnownSource) DocsOption {
	return func(s *DocsService) {
		s.resolver = NewIntentResolver(catalog)
		s.scorer = NewScorer(catalog, WithMaxChunks(s.scorer.MaxChunks()))
	}
}

// WithScorer replaces the relevance scorer.
func WithScorer(scorer *Scorer) DocsOption {
	return func(s *DocsService) {
		s.scorer = scorer
	}
}

// WithStatusBus publishes every status event to bus as well as to the
// per-call observer.
func WithStatusBus(bus *StatusBus) DocsOption {
	return func(s *DocsService) {
		s.bus = bus
	}
}

// WithClock sets the time source stamped on built indices.
func WithClock(now func() time.Time) DocsOption {
	return func(s *DocsService) {
		s.now = now
	}
}

// NewDocsService creates a docs service over the default catalog.
func NewDocsService(crawler *Crawler, cache *IndexCache, opts ...DocsOption) *DocsService {
	catalog := domain.DefaultCatalog()
	s := &DocsService{
		resolver: NewIntentResolver(catalog),
		crawler:  crawler,
		cache:    cache,
		scorer:   NewScorer(catalog),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetContext resolves query, loads or builds the matching index and
// returns the best excerpts. When nothing scores, the first chunks of the
// index are returned unranked so the caller still gets some context.
func (s *DocsService) GetContext(
	ctx context.Context,
	query string,
	observer driving.StatusObserver,
) (*domain.ContextResult, error) {
	intent, ok := s.resolver.Resolve(query)
	if !ok {
		return nil, nil
	}
	observer = s.observers(observer)

	index, usedCache, err := s.indexFor(ctx, intent, observer)
	if err != nil {
		return nil, err
	}
	if len(index.Chunks) == 0 {
		logger.Debug("docs: no chunks for %q", index.Label)
		return nil, nil
	}

	ranked := s.scorer.Score(query, index.Chunks)
	if len(ranked) == 0 {
		ranked = prefix(index.Chunks, s.scorer.MaxChunks())
	}

	return &domain.ContextResult{
		Context:     domain.FormatContext(ranked),
		SourceLabel: index.Label,
		ChunkCount:  len(ranked),
		UsedCache:   usedCache,
		TopScore:    ranked[0].Score,
		Chunks:      ranked,
	}, nil
}

// BuildIndex loads a catalog source from the cache or crawls it, then
// caches the result. With refresh set, the cache is bypassed.
func (s *DocsService) BuildIndex(
	ctx context.Context,
	sourceKey string,
	refresh bool,
	observer driving.StatusObserver,
) (*domain.Index, error) {
	source, ok := s.resolver.Source(sourceKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSource, sourceKey)
	}
	observer = s.observers(observer)

	if !refresh {
		if index, hit := s.loadCached(ctx, source, observer); hit {
			return index, nil
		}
	}
	return s.buildSource(ctx, source, observer)
}

// Sources returns the documentation catalog.
func (s *DocsService) Sources() []domain.KnownSource {
	return s.resolver.Catalog()
}

// ClearCache drops one source's cached index, or all of them when
// sourceKey is empty.
func (s *DocsService) ClearCache(ctx context.Context, sourceKey string) error {
	if sourceKey == "" {
		return s.cache.ClearAll(ctx)
	}
	if _, ok := s.resolver.Source(sourceKey); !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownSource, sourceKey)
	}
	return s.cache.Clear(ctx, sourceKey)
}

func (s *DocsService) indexFor(
	ctx context.Context,
	intent domain.Intent,
	observer driving.StatusObserver,
) (*domain.Index, bool, error) {
	if intent.Kind == domain.IntentSource {
		if index, hit := s.loadCached(ctx, *intent.Source, observer); hit {
			return index, true, nil
		}
		index, err := s.buildSource(ctx, *intent.Source, observer)
		return index, false, err
	}

	notify(observer, domain.StatusEvent{
		Kind:    domain.StatusBuildStart,
		Message: "[Docs] Building local index from URL: " + intent.URL,
		URL:     intent.URL,
		Budget:  intent.MaxPages,
	})
	chunks, err := s.crawler.Crawl(ctx, CrawlRequest{
		Seeds:       []string{intent.URL},
		MaxPages:    intent.MaxPages,
		AllowedHost: hostOf(intent.URL),
	}, observer)
	if err != nil {
		return nil, false, err
	}
	return &domain.Index{Label: intent.Label, BuiltAt: s.now(), Chunks: chunks}, false, nil
}

func (s *DocsService) loadCached(
	ctx context.Context,
	source domain.KnownSource,
	observer driving.StatusObserver,
) (*domain.Index, bool) {
	index, hit := s.cache.Load(ctx, source.Key)
	if !hit {
		return nil, false
	}
	notify(observer, domain.StatusEvent{
		Kind:    domain.StatusCacheHit,
		Message: fmt.Sprintf("[Docs] Loaded cached index: %s (%d chunks).", source.Label, len(index.Chunks)),
		Chunks:  len(index.Chunks),
	})
	return index, true
}

// buildSource crawls a catalog source and saves the index, however
// small. A cancelled crawl is neither saved nor returned.
func (s *DocsService) buildSource(
	ctx context.Context,
	source domain.KnownSource,
	observer driving.StatusObserver,
) (*domain.Index, error) {
	notify(observer, domain.StatusEvent{
		Kind:    domain.StatusBuildStart,
		Message: fmt.Sprintf("[Docs] Building local index: %s...", source.Label),
		Budget:  source.MaxPages,
	})

	chunks, err := s.crawler.Crawl(ctx, CrawlRequest{
		Seeds:       source.Seeds,
		MaxPages:    source.MaxPages,
		AllowedHost: source.Host(),
	}, observer)
	if err != nil {
		return nil, err
	}

	index := &domain.Index{Label: source.Label, BuiltAt: s.now(), Chunks: chunks}
	s.cache.Save(ctx, source.Key, index)

	notify(observer, domain.StatusEvent{
		Kind:    domain.StatusIndexReady,
		Message: fmt.Sprintf("[Docs] Index ready: %d chunks.", len(chunks)),
		Chunks:  len(chunks),
	})
	return index, nil
}

func (s *DocsService) observers(observer driving.StatusObserver) driving.StatusObserver {
	if s.bus == nil {
		return observer
	}
	return multiObserver{s.bus, observer}
}

// prefix returns the first n chunks with a zero score.
func prefix(chunks []domain.Chunk, n int) []domain.RankedChunk {
	if n > len(chunks) {
		n = len(chunks)
	}
	out := make([]domain.RankedChunk, n)
	for i := range out {
		out[i] = domain.RankedChunk{Chunk: chunks[i]}
	}
	return out
}
