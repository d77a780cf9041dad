// Package input provides the message input component for the chat TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsrag/internal/adapters/driving/tui/styles"
)

const (
	placeholder        = "Ask about PydanticAI, FastAPI, LangChain or paste a URL..."
	pendingPlaceholder = "Waiting for a reply..."
	charLimit          = 2000
)

// ChatInput wraps a bubbles textinput that can be disabled while a reply
// is pending. A disabled input ignores keys and never submits.
type ChatInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
	disabled  bool
}

// NewChatInput creates a new, focused chat input.
func NewChatInput(s *styles.Styles) *ChatInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = charLimit
	ti.Width = 60

	return &ChatInput{
		textinput: ti,
		styles:    s,
		width:     60,
	}
}

// Init initialises the input.
func (c *ChatInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages. Keys are dropped while disabled.
func (c *ChatInput) Update(msg tea.Msg) (*ChatInput, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok && c.disabled {
		return c, nil
	}
	var cmd tea.Cmd
	c.textinput, cmd = c.textinput.Update(msg)
	return c, cmd
}

// View renders the input.
func (c *ChatInput) View() string {
	if c.disabled {
		return c.styles.InputDisabled.Width(c.width - 2).Render(pendingPlaceholder)
	}
	return c.styles.InputField.Width(c.width - 2).Render(c.textinput.View())
}

// Value returns the current input value.
func (c *ChatInput) Value() string {
	return c.textinput.Value()
}

// SetValue sets the input value.
func (c *ChatInput) SetValue(value string) {
	c.textinput.SetValue(value)
}

// Disable blurs the input until Enable is called.
func (c *ChatInput) Disable() {
	c.disabled = true
	c.textinput.Blur()
}

// Enable re-focuses the input.
func (c *ChatInput) Enable() tea.Cmd {
	c.disabled = false
	return c.textinput.Focus()
}

// Disabled reports whether the input is waiting for a reply.
func (c *ChatInput) Disabled() bool {
	return c.disabled
}

// Focused returns whether the input is focused.
func (c *ChatInput) Focused() bool {
	return c.textinput.Focused()
}

// SetWidth sets the width of the input, border included.
func (c *ChatInput) SetWidth(width int) {
	c.width = width
	inputWidth := width - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	c.textinput.Width = inputWidth
}

// Width returns the current width.
func (c *ChatInput) Width() int {
	return c.width
}

// Reset clears the input.
func (c *ChatInput) Reset() {
	c.textinput.Reset()
}
