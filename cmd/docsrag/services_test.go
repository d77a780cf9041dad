package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
)

func TestBuildServices(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(`
[llm]
model = "gemini-2.5-flash-lite"

[chat]
guest_limit = 2
web_search = true
`), 0600))
	t.Setenv("GEMINI_API_KEY", "guest-key")

	s, err := buildServices(home)
	require.NoError(t, err)
	defer func() { assert.NoError(t, s.Close()) }()

	assert.Equal(t, home, s.Settings.Home)
	assert.Equal(t, "gemini-2.5-flash-lite", s.Settings.LLM.Model)
	assert.Equal(t, filepath.Join(home, "config.toml"), s.Config.Path())
	assert.Len(t, s.Docs.Sources(), 4)
	assert.True(t, s.Chat.WebSearch())
	assert.Equal(t, 2, s.Chat.GuestMessagesLeft(t.Context()))
	assert.False(t, s.Chat.HasAPIKey(t.Context()))
	assert.FileExists(t, filepath.Join(home, "data", "storage.db"))
}

func TestBuildServices_InvalidProxyEndpoint(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(`
[proxy]
endpoint = "not a url"
`), 0600))

	_, err := buildServices(home)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid endpoint")
}

func TestBuildServices_StatusReachesSubscribers(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"contents": "<html><body><main><h1>FastAPI</h1><p>FastAPI is a modern web framework for building APIs.</p></main></body></html>",
		})
	}))
	defer proxy.Close()

	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(fmt.Sprintf(`
[proxy]
endpoint = %q
`, proxy.URL)), 0600))

	s, err := buildServices(home)
	require.NoError(t, err)
	defer func() { assert.NoError(t, s.Close()) }()
	require.NotNil(t, s.Status)

	var mu sync.Mutex
	var kinds []domain.StatusKind
	unsubscribe := s.Status.Subscribe(driving.StatusFunc(func(event domain.StatusEvent) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, event.Kind)
	}))

	index, err := s.Docs.BuildIndex(t.Context(), "fastapi", true, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, index.Chunks)

	unsubscribe()
	_, err = s.Docs.BuildIndex(t.Context(), "fastapi", false, nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, domain.StatusBuildStart, kinds[0])
	assert.Contains(t, kinds, domain.StatusPage)
	assert.Equal(t, domain.StatusIndexReady, kinds[len(kinds)-1])
	assert.NotContains(t, kinds, domain.StatusCacheHit)
}
