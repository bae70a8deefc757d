package inbox

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/theme"
)

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Notification.Message }

// ItemDelegate implements list.ItemDelegate for notification rows.
type ItemDelegate struct {
	styles theme.Styles
	now    func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws one notification: a marker for unread, the message, its
// age and the view it links to.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification

	marker := " "
	text := d.styles.Muted.Render(n.Message)
	if !n.Read {
		marker = "•"
		text = d.styles.Unread.Render(n.Message)
	}

	line := fmt.Sprintf("%s %s %s", marker, text, d.styles.Muted.Render(relativeTime(d.now(), n.CreatedAt)))
	if n.Link != "" {
		line += d.styles.Help.Render(" → " + n.Link)
	}

	if index == m.Index() {
		fmt.Fprint(w, d.styles.Selected.Render(line))
		return
	}
	fmt.Fprint(w, d.styles.Item.Render(line))
}

// relativeTime formats t as a short age relative to now.
func relativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 02")
	}
}
