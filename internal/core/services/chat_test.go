package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driven"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
	htmlnorm "github.com/custodia-labs/docsrag/internal/normalisers/html"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService with scripted responses.
type mockLLM struct {
	responses []*domain.LLMResponse
	err       error
	requests  []domain.LLMRequest
}

func (m *mockLLM) Generate(_ context.Context, req domain.LLMRequest) (*domain.LLMResponse, error) {
	// Copy contents: the caller appends to the same slice between rounds.
	req.Contents = append([]domain.LLMContent(nil), req.Contents...)
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &domain.LLMResponse{Text: "default answer"}, nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func (m *mockLLM) ModelName() string { return "mock-model" }

// mockDocs implements driving.DocsService with a fixed result.
type mockDocs struct {
	result  *domain.ContextResult
	err     error
	queries []string
}

func (m *mockDocs) GetContext(_ context.Context, query string, _ driving.StatusObserver) (*domain.ContextResult, error) {
	m.queries = append(m.queries, query)
	return m.result, m.err
}

func (m *mockDocs) BuildIndex(context.Context, string, bool, driving.StatusObserver) (*domain.Index, error) {
	return nil, nil
}

func (m *mockDocs) Sources() []domain.KnownSource { return nil }

func (m *mockDocs) ClearCache(context.Context, string) error { return nil }

// mockPrompts implements driven.PromptStore from a map.
type mockPrompts map[string]string

func (m mockPrompts) Load(name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("no prompt %q", name)
}

func (m mockPrompts) Reload() {}

func testPrompts() mockPrompts {
	return mockPrompts{
		driven.PromptChatSystem:        "system prompt",
		driven.PromptDocsContext:       "From %s:\n%s\nQ: %s",
		driven.PromptReadDocumentation: "Reads a page.",
	}
}

type chatFixture struct {
	llm   *mockLLM
	docs  *mockDocs
	store *memory.KVStore
	site  *fakeSite
	chat  *ChatService
}

func newChatFixture(t *testing.T, cfg ChatConfig) *chatFixture {
	t.Helper()
	f := &chatFixture{
		llm:   &mockLLM{},
		docs:  &mockDocs{},
		store: memory.NewKVStore(),
		site:  newFakeSite(),
	}
	f.chat = NewChatService(f.docs, f.llm, f.store, testPrompts(), f.site, htmlnorm.New(), cfg)
	f.chat.now = fixedClock(testNow)
	ids := 0
	f.chat.newID = func() string {
		ids++
		return fmt.Sprintf("turn-%d", ids)
	}
	return f
}

func guestConfig() ChatConfig {
	cfg := DefaultChatConfig()
	cfg.DefaultAPIKey = "guest-key"
	return cfg
}

func lastUserText(req domain.LLMRequest) string {
	last := req.Contents[len(req.Contents)-1]
	return last.Parts[0].Text
}

// --- Tests ---

func TestAsk_GroundedWhenConfident(t *testing.T) {
	f := newChatFixture(t, guestConfig())
	f.docs.result = &domain.ContextResult{Context: "Source 1: ...", SourceLabel: "FastAPI Docs", TopScore: 0.9}
	f.llm.responses = []*domain.LLMResponse{{Text: "Use Depends."}}

	reply, err := f.chat.Ask(context.Background(), "  fastapi dependencies  ", nil)

	require.NoError(t, err)
	assert.Equal(t, "Use Depends.", reply.Text)
	assert.False(t, reply.Failed)
	assert.Same(t, f.docs.result, reply.Docs)
	assert.Equal(t, []string{"fastapi dependencies"}, f.docs.queries)

	require.Len(t, f.llm.requests, 1)
	req := f.llm.requests[0]
	assert.Equal(t, "guest-key", req.APIKey)
	assert.Equal(t, "system prompt", req.SystemInstruction)
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)
	assert.Equal(t, domain.ToolsNone, req.Tools)
	assert.Equal(t, "From FastAPI Docs:\nSource 1: ...\nQ: fastapi dependencies", lastUserText(req))
}

func TestAsk_WeakContextUsesExactlyOneToolKind(t *testing.T) {
	tests := []struct {
		name      string
		webSearch bool
		docs      *domain.ContextResult
		wantTools domain.ToolKind
	}{
		{"no docs, search on", true, nil, domain.ToolsWebSearch},
		{"weak docs, search on", true, &domain.ContextResult{TopScore: 0.2}, domain.ToolsWebSearch},
		{"no docs, search off", false, nil, domain.ToolsFunctions},
		{"weak docs, search off", false, &domain.ContextResult{TopScore: 0.34}, domain.ToolsFunctions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(t, guestConfig())
			f.chat.SetWebSearch(tt.webSearch)
			f.docs.result = tt.docs

			reply, err := f.chat.Ask(context.Background(), "what is new", nil)
			require.NoError(t, err)

			req := f.llm.requests[0]
			assert.Equal(t, tt.wantTools, req.Tools)
			assert.Equal(t, "what is new", lastUserText(req))
			assert.Equal(t, tt.wantTools == domain.ToolsWebSearch, reply.WebSearch)
			if tt.wantTools == domain.ToolsWebSearch {
				assert.Empty(t, req.Functions, "web search never travels with functions")
			} else {
				require.Len(t, req.Functions, 1)
				assert.Equal(t, ReadDocumentationTool, req.Functions[0].Name)
			}
		})
	}
}

func TestAsk_FunctionCallLoop(t *testing.T) {
	f := newChatFixture(t, guestConfig())
	f.site.add("https://ai.pydantic.dev/", strings.Repeat("pydantic ", 3000))
	f.llm.responses = []*domain.LLMResponse{
		{FunctionCalls: []domain.FunctionCall{{Name: ReadDocumentationTool, Args: map[string]any{"url": "https://ai.pydantic.dev/#intro"}}}},
		{Text: "Here is the summary."},
	}

	reply, err := f.chat.Ask(context.Background(), "summarise the pydantic ai home page", nil)

	require.NoError(t, err)
	assert.Equal(t, "Here is the summary.", reply.Text)
	assert.Equal(t, []string{"https://ai.pydantic.dev/"}, f.site.fetched)

	require.Len(t, f.llm.requests, 2)
	second := f.llm.requests[1].Contents
	require.Len(t, second, 3)
	assert.Equal(t, domain.RoleModel, second[1].Role)
	require.NotNil(t, second[1].Parts[0].FunctionCall)
	assert.Equal(t, domain.RoleUser, second[2].Role)
	result := second[2].Parts[0].FunctionResponse
	require.NotNil(t, result)
	assert.Equal(t, ReadDocumentationTool, result.Name)
	assert.Equal(t, "https://ai.pydantic.dev/", result.Response["url"])
	content, ok := result.Response["content"].(string)
	require.True(t, ok)
	assert.Len(t, []rune(content), 12000)
}

func TestAsk_FunctionCallLoopIsBounded(t *testing.T) {
	f := newChatFixture(t, guestConfig())
	f.llm.responses = []*domain.LLMResponse{
		{FunctionCalls: []domain.FunctionCall{{Name: ReadDocumentationTool, Args: map[string]any{"url": "https://docs.test/"}}}},
	}

	reply, err := f.chat.Ask(context.Background(), "keep reading", nil)

	require.NoError(t, err)
	assert.Equal(t, msgEmptyAnswer, reply.Text)
	assert.Len(t, f.llm.requests, 4, "first request plus three tool rounds")
}

func TestAsk_FunctionErrorsGoBackToModel(t *testing.T) {
	f := newChatFixture(t, guestConfig())
	f.llm.responses = []*domain.LLMResponse{
		{FunctionCalls: []domain.FunctionCall{
			{Name: ReadDocumentationTool, Args: map[string]any{"url": "not-a-url"}},
			{Name: "delete_everything"},
			{Name: ReadDocumentationTool, Args: map[string]any{"url": "https://missing.test/"}},
		}},
		{Text: "Could not read it."},
	}

	_, err := f.chat.Ask(context.Background(), "read some docs", nil)
	require.NoError(t, err)

	parts := f.llm.requests[1].Contents[2].Parts
	require.Len(t, parts, 3)
	for _, part := range parts {
		assert.Contains(t, part.FunctionResponse.Response, "error")
	}
}

func TestAsk_GuestLimit(t *testing.T) {
	cfg := guestConfig()
	cfg.GuestLimit = 2
	f := newChatFixture(t, cfg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		reply, err := f.chat.Ask(ctx, "hello", nil)
		require.NoError(t, err)
		assert.True(t, reply.Guest)
	}
	assert.Equal(t, 0, f.chat.GuestMessagesLeft(ctx))

	reply, err := f.chat.Ask(ctx, "hello again", nil)
	require.ErrorIs(t, err, domain.ErrGuestLimitReached)
	assert.True(t, reply.Failed)
	assert.Contains(t, reply.Text, "set-key")
	assert.Len(t, f.llm.requests, 2, "no model call past the limit")

	require.NoError(t, f.chat.SetAPIKey(ctx, " user-key "))
	assert.True(t, f.chat.HasAPIKey(ctx))
	reply, err = f.chat.Ask(ctx, "hello with my key", nil)
	require.NoError(t, err)
	assert.False(t, reply.Guest)
	assert.Equal(t, "user-key", f.llm.requests[2].APIKey)
}

func TestAsk_NoKeyAtAll(t *testing.T) {
	f := newChatFixture(t, DefaultChatConfig())

	reply, err := f.chat.Ask(context.Background(), "hi", nil)

	require.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.True(t, reply.Failed)
	assert.Empty(t, f.llm.requests)
}

func TestAsk_NoModelConfigured(t *testing.T) {
	docs := &mockDocs{}
	chat := NewChatService(docs, nil, memory.NewKVStore(), testPrompts(), newFakeSite(), htmlnorm.New(), guestConfig())

	reply, err := chat.Ask(context.Background(), "what is fastapi", nil)

	require.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.True(t, reply.Failed)
	assert.Equal(t, 5, chat.GuestMessagesLeft(context.Background()))
}

func TestAsk_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth", fmt.Errorf("gemini: %w", domain.ErrLLMAuth), msgAuthFailed},
		{"other", errors.New("connection reset"), msgUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(t, guestConfig())
			f.llm.err = tt.err

			reply, err := f.chat.Ask(context.Background(), "hi", nil)

			require.ErrorIs(t, err, tt.err)
			assert.True(t, reply.Failed)
			assert.Equal(t, tt.want, reply.Text)
			assert.Equal(t, guestConfig().GuestLimit, f.chat.GuestMessagesLeft(context.Background()),
				"failed messages do not use the guest allowance")
			history, err := f.chat.History(context.Background())
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}
}

func TestAsk_EmptyMessage(t *testing.T) {
	f := newChatFixture(t, guestConfig())

	_, err := f.chat.Ask(context.Background(), "   ", nil)

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.docs.queries)
}

func TestAsk_RetrievalCancelled(t *testing.T) {
	f := newChatFixture(t, guestConfig())
	f.docs.err = context.Canceled

	reply, err := f.chat.Ask(context.Background(), "fastapi", nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, reply)
	assert.Empty(t, f.llm.requests)
}

func TestTranscript(t *testing.T) {
	f := newChatFixture(t, guestConfig())
	ctx := context.Background()
	f.llm.responses = []*domain.LLMResponse{{Text: "first answer"}, {Text: "second answer"}}

	_, err := f.chat.Ask(ctx, "first question", nil)
	require.NoError(t, err)
	_, err = f.chat.Ask(ctx, "second question", nil)
	require.NoError(t, err)

	history, err := f.chat.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "turn-1", history[0].ID)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "first question", history[0].Text)
	assert.True(t, history[0].At.Equal(testNow))
	assert.Equal(t, domain.RoleModel, history[3].Role)
	assert.Equal(t, "second answer", history[3].Text)

	replayed := f.llm.requests[1].Contents
	require.Len(t, replayed, 3)
	assert.Equal(t, "first question", replayed[0].Parts[0].Text)
	assert.Equal(t, "first answer", replayed[1].Parts[0].Text)

	require.NoError(t, f.chat.Clear(ctx))
	history, err = f.chat.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAPIKeyManagement(t *testing.T) {
	f := newChatFixture(t, guestConfig())
	ctx := context.Background()

	require.ErrorIs(t, f.chat.SetAPIKey(ctx, "  "), domain.ErrInvalidInput)
	assert.False(t, f.chat.HasAPIKey(ctx))

	require.NoError(t, f.chat.SetAPIKey(ctx, "abc"))
	assert.True(t, f.chat.HasAPIKey(ctx))

	require.NoError(t, f.chat.ClearAPIKey(ctx))
	assert.False(t, f.chat.HasAPIKey(ctx))

	f.store.SetReadOnly(true)
	require.ErrorIs(t, f.chat.SetAPIKey(ctx, "abc"), domain.ErrStorageUnavailable)
}
