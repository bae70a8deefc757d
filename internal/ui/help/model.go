// Package help renders the full keyboard shortcut overlay.
package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/task-rewards/internal/keys"
	"github.com/nhle/task-rewards/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	styles theme.Styles
	help   help.Model
	width  int
	height int
}

// New creates a help overlay.
func New(k *keys.KeyMap, styles theme.Styles, width, height int) Model {
	h := help.New()
	h.ShowAll = true
	h.Width = width - 4
	return Model{
		keys:   k,
		styles: styles,
		help:   h,
		width:  width,
		height: height,
	}
}

// View renders every binding of the key map inside a panel.
func (m Model) View() string {
	title := m.styles.Unread.MarginBottom(1).Render("Keyboard Shortcuts")
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.help.View(m.keys))

	return m.styles.Panel.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the overlay dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
