package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docsrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
)

func newTestApp(t *testing.T, chat *MockChatService) *App {
	t.Helper()
	app, err := NewApp(&Ports{Chat: chat})
	require.NoError(t, err)
	app.Update(tea.WindowSizeMsg{Width: 200, Height: 30})
	return app
}

func typeText(app *App, text string) {
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func pressEnter(app *App) tea.Cmd {
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestNewApp_RequiresChat(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrMissingChatService)
}

func TestApp_Init_LoadsHistory(t *testing.T) {
	chat := &MockChatService{Turns: []domain.ChatTurn{
		{ID: "1", Role: domain.RoleUser, Text: "earlier question"},
		{ID: "2", Role: domain.RoleModel, Text: "earlier answer"},
	}}
	app := newTestApp(t, chat)

	require.NotNil(t, app.Init())
	app.Update(app.loadHistory()())

	assert.Contains(t, app.View(), "earlier question")
	assert.Contains(t, app.View(), "earlier answer")
}

func TestApp_SubmitDisablesInputUntilReply(t *testing.T) {
	chat := &MockChatService{}
	app := newTestApp(t, chat)

	typeText(app, "what is fastapi")
	cmd := pressEnter(app)
	require.NotNil(t, cmd)

	assert.True(t, app.Pending())
	assert.True(t, app.input.Disabled())
	assert.Equal(t, status.StatePending, app.statusbar.State())

	// A second submission while pending is refused.
	typeText(app, "again")
	assert.Nil(t, pressEnter(app))
	assert.Equal(t, "", app.input.Value())

	msg := cmd()
	reply, ok := msg.(messages.ReplyReceived)
	require.True(t, ok)
	assert.Equal(t, "what is fastapi", reply.Question)

	app.Update(msg)

	assert.False(t, app.Pending())
	assert.False(t, app.input.Disabled())
	assert.Equal(t, []string{"what is fastapi"}, chat.Asked())
	assert.Contains(t, app.View(), "answer to what is fastapi")
}

func TestApp_EmptySubmitIsIgnored(t *testing.T) {
	app := newTestApp(t, &MockChatService{})

	typeText(app, "   ")

	assert.Nil(t, pressEnter(app))
	assert.False(t, app.Pending())
}

func TestApp_StatusEventsReachStatusBar(t *testing.T) {
	release := make(chan struct{})
	chat := &MockChatService{
		AskFunc: func(_ context.Context, _ string, observer driving.StatusObserver) (*domain.ChatReply, error) {
			observer.OnStatus(domain.StatusEvent{
				Kind:    domain.StatusPage,
				Message: "[Docs] Reading (1/10): https://fastapi.tiangolo.com/",
			})
			<-release
			return &domain.ChatReply{Text: "done"}, nil
		},
	}
	app := newTestApp(t, chat)

	typeText(app, "fastapi routing")
	askCmd := pressEnter(app)
	require.NotNil(t, askCmd)

	replies := make(chan tea.Msg, 1)
	go func() { replies <- askCmd() }()

	statusMsg := app.waitForStatus()()
	_, next := app.Update(statusMsg)

	assert.NotNil(t, next, "the app keeps listening for status events")
	assert.Contains(t, app.statusbar.Message(), "[Docs] Reading (1/10)")

	close(release)
	select {
	case msg := <-replies:
		app.Update(msg)
	case <-time.After(5 * time.Second):
		t.Fatal("ask did not complete")
	}
	assert.Equal(t, status.StateReady, app.statusbar.State())
}

func TestApp_ReplyNotes(t *testing.T) {
	tests := []struct {
		name  string
		reply *domain.ChatReply
		want  string
	}{
		{
			name: "docs grounded",
			reply: &domain.ChatReply{Text: "a", Docs: &domain.ContextResult{
				SourceLabel: "FastAPI Docs", ChunkCount: 8, UsedCache: true,
			}},
			want: "Sources: FastAPI Docs (8 excerpts, cached)",
		},
		{
			name:  "web search",
			reply: &domain.ChatReply{Text: "a", WebSearch: true},
			want:  "Web search enabled",
		},
		{
			name:  "failed reply has no note",
			reply: &domain.ChatReply{Text: "a", Failed: true, WebSearch: true},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, replyNote(tt.reply))
		})
	}
}

func TestApp_FailedReplyShowsError(t *testing.T) {
	chat := &MockChatService{
		AskFunc: func(context.Context, string, driving.StatusObserver) (*domain.ChatReply, error) {
			return &domain.ChatReply{Text: "Authentication failed.\nCheck your key.", Failed: true},
				domain.ErrLLMAuth
		},
	}
	app := newTestApp(t, chat)

	typeText(app, "hello")
	cmd := pressEnter(app)
	app.Update(cmd())

	assert.Equal(t, status.StateError, app.statusbar.State())
	assert.Equal(t, "Authentication failed.", app.statusbar.Message())
	entries := app.transcript.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[1].Failed)
}

func TestApp_NilReplyFallsBackToError(t *testing.T) {
	app := newTestApp(t, &MockChatService{})

	app.Update(messages.ReplyReceived{Question: "q", Err: errors.New("boom")})

	entries := app.transcript.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].Text)
	assert.True(t, entries[0].Failed)
}

func TestApp_ToggleWebSearch(t *testing.T) {
	chat := &MockChatService{Left: 4}
	app := newTestApp(t, chat)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlW})

	assert.True(t, chat.WebSearch())
	assert.Contains(t, app.statusbar.View(), "web: on")
	assert.Contains(t, app.statusbar.View(), "guest: 4 left")
}

func TestApp_ClearTranscript(t *testing.T) {
	chat := &MockChatService{HasKey: true}
	app := newTestApp(t, chat)
	typeText(app, "hello")
	app.Update(pressEnter(app)())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, 1, chat.cleared)
	assert.Empty(t, app.transcript.Entries())
	assert.Contains(t, app.statusbar.View(), "own key")
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, &MockChatService{})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
