package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docsrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docsrag/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/docsrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
)

// statusBuffer bounds the progress events queued between the retrieval
// goroutine and the UI. Events beyond it are dropped.
const statusBuffer = 64

// App is the chat window following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	input      *input.ChatInput
	transcript *transcript.View
	statusbar  *status.Bar

	// statusCh carries retrieval progress from Ask to the UI loop.
	statusCh chan domain.StatusEvent

	// pending is set from submit until the reply arrives; a second
	// submission is refused while it is set.
	pending bool

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat window over the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		input:      input.NewChatInput(s),
		transcript: transcript.New(s),
		statusbar:  status.NewBar(s, km),
		statusCh:   make(chan domain.StatusEvent, statusBuffer),
		width:      80,
		height:     24,
	}
	a.refreshMode()
	a.layout()
	return a, nil
}

// WithContext sets the context passed to the chat service.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("docsrag - chat"),
		a.input.Init(),
		a.loadHistory(),
		a.waitForStatus(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.HistoryLoaded:
		if msg.Err != nil {
			a.statusbar.SetState(status.StateError)
			a.statusbar.SetMessage("Could not load history: " + msg.Err.Error())
			return a, nil
		}
		a.transcript.SetTurns(msg.Turns)
		return a, nil

	case messages.StatusReceived:
		if a.pending {
			a.statusbar.SetMessage(msg.Event.Message)
		}
		return a, a.waitForStatus()

	case messages.ReplyReceived:
		return a, a.handleReply(msg)

	case messages.TranscriptCleared:
		if msg.Err != nil {
			a.statusbar.SetState(status.StateError)
			a.statusbar.SetMessage(msg.Err.Error())
			return a, nil
		}
		a.transcript.Reset()
		a.statusbar.Clear()
		a.statusbar.SetMessage("Conversation cleared")
		return a, nil
	}

	var cmd tea.Cmd
	a.transcript, cmd = a.transcript.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(keyStr, a.keymap.Send):
		return a, a.submit()

	case keymap.Matches(keyStr, a.keymap.ScrollUp):
		a.transcript.PageUp()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.ScrollDown):
		a.transcript.PageDown()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.ToggleWebSearch):
		a.ports.Chat.SetWebSearch(!a.ports.Chat.WebSearch())
		a.refreshMode()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.Clear):
		if a.pending {
			return a, nil
		}
		return a, a.clearTranscript()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit starts answering the typed message unless a reply is pending.
func (a *App) submit() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if a.pending || question == "" {
		return nil
	}

	a.pending = true
	a.input.Reset()
	a.input.Disable()
	a.transcript.Append(transcript.Entry{Role: domain.RoleUser, Text: question})
	a.statusbar.SetState(status.StatePending)
	a.statusbar.SetMessage("")

	return a.ask(question)
}

func (a *App) handleReply(msg messages.ReplyReceived) tea.Cmd {
	a.pending = false
	cmd := a.input.Enable()

	reply := msg.Reply
	if reply == nil {
		text := "Something went wrong."
		if msg.Err != nil {
			text = msg.Err.Error()
		}
		reply = &domain.ChatReply{Text: text, Failed: true}
	}

	a.transcript.Append(transcript.Entry{
		Role:   domain.RoleModel,
		Text:   reply.Text,
		Failed: reply.Failed,
		Note:   replyNote(reply),
	})

	a.statusbar.Clear()
	if reply.Failed {
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(firstLine(reply.Text))
	}
	a.refreshMode()
	return cmd
}

// replyNote describes where an answer's grounding came from.
func replyNote(reply *domain.ChatReply) string {
	if reply.Failed {
		return ""
	}
	switch {
	case reply.Docs != nil:
		cached := ""
		if reply.Docs.UsedCache {
			cached = ", cached"
		}
		return fmt.Sprintf("Sources: %s (%d excerpts%s)", reply.Docs.SourceLabel, reply.Docs.ChunkCount, cached)
	case reply.WebSearch:
		return "Web search enabled"
	}
	return ""
}

func (a *App) ask(question string) tea.Cmd {
	chat := a.ports.Chat
	ctx := a.ctx
	ch := a.statusCh
	return func() tea.Msg {
		observer := driving.StatusFunc(func(event domain.StatusEvent) {
			select {
			case ch <- event:
			default:
			}
		})
		reply, err := chat.Ask(ctx, question, observer)
		return messages.ReplyReceived{Question: question, Reply: reply, Err: err}
	}
}

func (a *App) waitForStatus() tea.Cmd {
	ch := a.statusCh
	ctx := a.ctx
	return func() tea.Msg {
		select {
		case event := <-ch:
			return messages.StatusReceived{Event: event}
		case <-ctx.Done():
			return nil
		}
	}
}

func (a *App) loadHistory() tea.Cmd {
	chat := a.ports.Chat
	ctx := a.ctx
	return func() tea.Msg {
		turns, err := chat.History(ctx)
		return messages.HistoryLoaded{Turns: turns, Err: err}
	}
}

func (a *App) clearTranscript() tea.Cmd {
	chat := a.ports.Chat
	ctx := a.ctx
	return func() tea.Msg {
		return messages.TranscriptCleared{Err: chat.Clear(ctx)}
	}
}

// refreshMode syncs the key mode and web search indicator with the service.
func (a *App) refreshMode() {
	chat := a.ports.Chat
	a.statusbar.SetWebSearch(chat.WebSearch())
	if chat.HasAPIKey(a.ctx) {
		a.statusbar.SetGuestLeft(-1)
	} else {
		a.statusbar.SetGuestLeft(chat.GuestMessagesLeft(a.ctx))
	}
}

func (a *App) layout() {
	const titleHeight, inputHeight, barHeight = 2, 3, 1
	a.input.SetWidth(a.width)
	a.statusbar.SetWidth(a.width)
	a.transcript.SetSize(a.width, a.height-titleHeight-inputHeight-barHeight)
}

// View implements tea.Model.
func (a *App) View() string {
	title := a.styles.Title.Render("docsrag") + a.styles.Muted.Render("  documentation chat")
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		a.transcript.View(),
		a.input.View(),
		a.statusbar.View(),
	)
}

// Pending reports whether a reply is outstanding.
func (a *App) Pending() bool {
	return a.pending
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
