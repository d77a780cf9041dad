// Package status provides the status line for the chat TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsrag/internal/adapters/driving/tui/styles"
)

// State represents the chat state for display.
type State string

const (
	StateReady   State = "ready"
	StatePending State = "pending"
	StateError   State = "error"
)

// Bar displays retrieval progress, the key mode and keybinding hints.
type Bar struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	state     State
	message   string
	webSearch bool

	// guestLeft is the remaining guest allowance, or -1 for a user key.
	guestLeft int
	width     int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles:    s,
		keymap:    km,
		state:     StateReady,
		guestLeft: -1,
		width:     80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StatePending:
		if s.message != "" {
			return s.styles.Warning.Render(s.message)
		}
		return s.styles.Warning.Render("Thinking...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(s.message)
		}
		return s.styles.Error.Render("Error")
	case StateReady:
	}
	if s.message != "" {
		return s.styles.Normal.Render(s.message)
	}
	return s.styles.Muted.Render("Ready")
}

func (s *Bar) renderRight() string {
	parts := make([]string, 0, 3)

	switch {
	case s.guestLeft < 0:
		parts = append(parts, "own key")
	default:
		parts = append(parts, fmt.Sprintf("guest: %d left", s.guestLeft))
	}

	if s.webSearch {
		parts = append(parts, "web: on")
	} else {
		parts = append(parts, "web: off")
	}

	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		hints = append(hints, hintFor(b))
	}
	parts = append(parts, strings.Join(hints, " | "))

	return s.styles.Muted.Render(strings.Join(parts, " · "))
}

func hintFor(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("%s: %s", h.Key, h.Desc)
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the text shown on the left.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetWebSearch sets the web search indicator.
func (s *Bar) SetWebSearch(enabled bool) {
	s.webSearch = enabled
}

// SetGuestLeft sets the remaining guest allowance; negative means the
// user's own key is in use.
func (s *Bar) SetGuestLeft(n int) {
	s.guestLeft = n
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to the ready state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
