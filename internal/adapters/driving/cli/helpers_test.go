package cli

import (
	"bytes"
	"context"
	"regexp"
	"time"

	"github.com/custodia-labs/docsrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsrag/internal/config"
	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
)

// mockDocsService implements driving.DocsService for command tests.
type mockDocsService struct {
	result  *domain.ContextResult
	index   *domain.Index
	err     error
	events  []domain.StatusEvent
	cleared []string

	lastQuery   string
	lastRefresh bool
}

var _ driving.DocsService = (*mockDocsService)(nil)

func (m *mockDocsService) GetContext(
	_ context.Context,
	query string,
	observer driving.StatusObserver,
) (*domain.ContextResult, error) {
	m.lastQuery = query
	for _, e := range m.events {
		observer.OnStatus(e)
	}
	return m.result, m.err
}

func (m *mockDocsService) BuildIndex(
	_ context.Context,
	key string,
	refresh bool,
	observer driving.StatusObserver,
) (*domain.Index, error) {
	m.lastRefresh = refresh
	if m.err != nil {
		return nil, m.err
	}
	for _, e := range m.events {
		observer.OnStatus(e)
	}
	if m.index != nil {
		return m.index, nil
	}
	return &domain.Index{Label: key, BuiltAt: time.Now()}, nil
}

func (m *mockDocsService) Sources() []domain.KnownSource {
	return []domain.KnownSource{{
		Key:      "fastapi",
		Label:    "FastAPI Docs",
		BaseURL:  "https://fastapi.tiangolo.com",
		MaxPages: 10,
		Pattern:  regexp.MustCompile(`fastapi`),
	}}
}

func (m *mockDocsService) ClearCache(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	m.cleared = append(m.cleared, key)
	return nil
}

// mockChatService implements driving.ChatService for command tests.
type mockChatService struct {
	reply *domain.ChatReply
	err   error

	key       string
	left      int
	webSearch bool
	asked     []string
}

var _ driving.ChatService = (*mockChatService)(nil)

func (m *mockChatService) Ask(_ context.Context, text string, _ driving.StatusObserver) (*domain.ChatReply, error) {
	m.asked = append(m.asked, text)
	return m.reply, m.err
}

func (m *mockChatService) History(_ context.Context) ([]domain.ChatTurn, error) { return nil, nil }

func (m *mockChatService) Clear(_ context.Context) error { return nil }

func (m *mockChatService) SetAPIKey(_ context.Context, key string) error {
	m.key = key
	return nil
}

func (m *mockChatService) ClearAPIKey(_ context.Context) error {
	m.key = ""
	return nil
}

func (m *mockChatService) HasAPIKey(_ context.Context) bool { return m.key != "" }

func (m *mockChatService) GuestMessagesLeft(_ context.Context) int { return m.left }

func (m *mockChatService) SetWebSearch(enabled bool) { m.webSearch = enabled }

func (m *mockChatService) WebSearch() bool { return m.webSearch }

// testServices are the fakes installed by setupTestServices.
type testServices struct {
	docs   *mockDocsService
	chat   *mockChatService
	config *memory.ConfigStore
}

var testEnv *testServices

// setupTestServices installs fresh fakes and returns a cleanup function.
func setupTestServices() func() {
	testEnv = &testServices{
		docs:   &mockDocsService{},
		chat:   &mockChatService{left: 5},
		config: memory.NewConfigStore(nil),
	}
	s := config.Defaults()
	s.Home = "/tmp/docsrag-test"
	SetServices(&Services{
		Docs:     testEnv.docs,
		Chat:     testEnv.chat,
		Config:   testEnv.config,
		Settings: s,
	})
	return func() {
		SetServices(nil)
		testEnv = nil
	}
}

// execute runs the root command with args and returns stdout, stderr and the error.
func execute(args ...string) (string, string, error) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
