package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsrag/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DBFile), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "docs-rag:v1:fastapi", `{"label":"FastAPI Docs"}`))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "docs-rag:v1:fastapi")
	require.NoError(t, err)
	assert.Equal(t, `{"label":"FastAPI Docs"}`, got)
}

func TestStore_GetMissing(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	require.NoError(t, store.Set(ctx, "k", "first"))
	require.NoError(t, store.Set(ctx, "k", "second"))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	require.NoError(t, store.Set(ctx, "k", "v"))

	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_KeysByPrefix(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	for _, k := range []string{"docs-rag:v1:langchain", "docs-rag:v1:fastapi", "docsrag:chat:transcript", "docs-rag_x"} {
		require.NoError(t, store.Set(ctx, k, "{}"))
	}

	keys, err := store.Keys(ctx, "docs-rag:")

	require.NoError(t, err)
	assert.Equal(t, []string{"docs-rag:v1:fastapi", "docs-rag:v1:langchain"}, keys)
}

func TestStore_KeysEmptyPrefix(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))

	keys, err := store.Keys(ctx, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestStore_UnicodeValues(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	require.NoError(t, store.Set(ctx, "k", "perché ¿qué? 天気"))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "perché ¿qué? 天気", got)
}
