package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/task-rewards/internal/theme"
)

// Layout splits the terminal into a header line, a content area and a
// status bar line.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int

	styles theme.Styles
}

// NewLayout creates a Layout for the given terminal size. HeaderHeight
// and StatusBarHeight default to 1.
func NewLayout(styles theme.Styles, width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
		styles:          styles,
	}
}

// ContentHeight returns the rows left for content, at least 1.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// RenderHeader renders title on the left and status on the right,
// filling the full width with the header background.
func (l Layout) RenderHeader(title, status string) string {
	titleRendered := l.styles.Header.Render(title)

	var statusRendered string
	if status != "" {
		statusRendered = l.styles.Header.Align(lipgloss.Right).Render(status)
	}

	gap := l.Width - lipgloss.Width(titleRendered) - lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(l.styles.Header.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, titleRendered, filler, statusRendered)
}

// RenderStatusBar renders hints across the full width.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := l.styles.StatusBar.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(l.styles.StatusBar.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame stacks the header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
