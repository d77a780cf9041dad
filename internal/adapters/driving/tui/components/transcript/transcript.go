// Package transcript provides the scrollable conversation view for the chat TUI.
package transcript

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsrag/internal/core/domain"
)

// Entry is one rendered message.
type Entry struct {
	Role   domain.ChatRole
	Text   string
	Failed bool

	// Note is a muted line under a model answer, such as the docs source used.
	Note string
}

// View renders entries in a viewport that follows the newest message.
type View struct {
	viewport viewport.Model
	styles   *styles.Styles
	entries  []Entry
	width    int
}

// New creates an empty transcript view.
func New(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{
		viewport: viewport.New(80, 20),
		styles:   s,
		width:    80,
	}
	v.refresh()
	return v
}

// Update forwards scroll keys and mouse wheel events to the viewport.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the visible part of the transcript.
func (v *View) View() string {
	return v.viewport.View()
}

// SetSize resizes the viewport and re-wraps every entry.
func (v *View) SetSize(width, height int) {
	if height < 1 {
		height = 1
	}
	v.width = width
	v.viewport.Width = width
	v.viewport.Height = height
	v.refresh()
}

// SetTurns replaces the transcript with persisted turns.
func (v *View) SetTurns(turns []domain.ChatTurn) {
	v.entries = v.entries[:0]
	for _, t := range turns {
		v.entries = append(v.entries, Entry{Role: t.Role, Text: t.Text})
	}
	v.refresh()
}

// Append adds an entry and scrolls to it.
func (v *View) Append(e Entry) {
	v.entries = append(v.entries, e)
	v.refresh()
}

// Reset drops every entry.
func (v *View) Reset() {
	v.entries = nil
	v.refresh()
}

// Entries returns the current entries.
func (v *View) Entries() []Entry {
	return v.entries
}

// PageUp scrolls up by one viewport height.
func (v *View) PageUp() {
	v.viewport.PageUp()
}

// PageDown scrolls down by one viewport height.
func (v *View) PageDown() {
	v.viewport.PageDown()
}

// AtBottom reports whether the newest message is visible.
func (v *View) AtBottom() bool {
	return v.viewport.AtBottom()
}

func (v *View) refresh() {
	v.viewport.SetContent(v.render())
	v.viewport.GotoBottom()
}

func (v *View) render() string {
	if len(v.entries) == 0 {
		return v.styles.Muted.Render("Ask a question about a documentation site, or paste a URL.")
	}

	body := v.styles.Normal.Width(v.width)
	blocks := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		var label string
		switch e.Role {
		case domain.RoleUser:
			label = v.styles.UserLabel.Render("You")
		default:
			label = v.styles.ModelLabel.Render("Assistant")
		}

		text := body.Render(e.Text)
		if e.Failed {
			text = v.styles.Error.Width(v.width).Render(e.Text)
		}

		block := fmt.Sprintf("%s\n%s", label, text)
		if e.Note != "" {
			block += "\n" + v.styles.Muted.Width(v.width).Render(e.Note)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}
