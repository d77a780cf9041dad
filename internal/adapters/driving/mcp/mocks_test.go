package mcp

import (
	"context"
	"regexp"
	"sync"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
)

// mockDocsService is a mock implementation of driving.DocsService.
type mockDocsService struct {
	result  *domain.ContextResult
	index   *domain.Index
	sources []domain.KnownSource
	err     error

	lastQuery   string
	lastKey     string
	lastRefresh bool
}

var _ driving.DocsService = (*mockDocsService)(nil)

func (m *mockDocsService) GetContext(
	_ context.Context,
	query string,
	_ driving.StatusObserver,
) (*domain.ContextResult, error) {
	m.lastQuery = query
	return m.result, m.err
}

func (m *mockDocsService) BuildIndex(
	_ context.Context,
	key string,
	refresh bool,
	_ driving.StatusObserver,
) (*domain.Index, error) {
	m.lastKey = key
	m.lastRefresh = refresh
	return m.index, m.err
}

func (m *mockDocsService) Sources() []domain.KnownSource {
	return m.sources
}

func (m *mockDocsService) ClearCache(_ context.Context, _ string) error {
	return m.err
}

func testCatalog() []domain.KnownSource {
	return []domain.KnownSource{
		{
			Key:      "fastapi",
			Label:    "FastAPI Docs",
			BaseURL:  "https://fastapi.tiangolo.com",
			Seeds:    []string{"https://fastapi.tiangolo.com/"},
			MaxPages: 10,
			Pattern:  regexp.MustCompile(`fastapi`),
		},
		{
			Key:      "langgraph",
			Label:    "LangGraph Docs",
			BaseURL:  "https://langchain-ai.github.io/langgraph",
			Seeds:    []string{"https://langchain-ai.github.io/langgraph/"},
			MaxPages: 10,
			Pattern:  regexp.MustCompile(`langgraph`),
		},
	}
}

// fakeStatusSource records subscribers and publishes to them on demand.
type fakeStatusSource struct {
	mu        sync.Mutex
	observers []driving.StatusObserver
	removed   int
}

var _ driving.StatusSource = (*fakeStatusSource)(nil)

func (f *fakeStatusSource) Subscribe(observer driving.StatusObserver) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, observer)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.removed++
	}
}

func (f *fakeStatusSource) publish(event domain.StatusEvent) {
	f.mu.Lock()
	observers := append([]driving.StatusObserver(nil), f.observers...)
	f.mu.Unlock()
	for _, o := range observers {
		o.OnStatus(event)
	}
}

func (f *fakeStatusSource) subscribers() (active, removed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.observers), f.removed
}
