// Package inbox is the interactive notification list: browse the
// signed-in user's notifications, mark them read and jump to the view
// a notification links to.
package inbox

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/task-rewards/internal/keys"
	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/sync"
	"github.com/nhle/task-rewards/internal/theme"
	"github.com/nhle/task-rewards/internal/ui"
	helpview "github.com/nhle/task-rewards/internal/ui/help"
)

// Service is the part of rewards.Service the inbox needs.
type Service interface {
	Notifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int) (string, error)
	MarkAllRead(ctx context.Context) (int, error)
}

// LoadedMsg is sent when notifications have been loaded.
type LoadedMsg struct {
	Notifications []model.Notification
	Err           error
}

// markedMsg reports the result of marking one notification read.
type markedMsg struct {
	link string
	open bool
	err  error
}

// allMarkedMsg reports the result of marking everything read.
type allMarkedMsg struct {
	count int
	err   error
}

// Model is the inbox view. It is run as its own Bubble Tea program;
// Link holds the chosen destination once it quits.
type Model struct {
	svc      Service
	poller   *sync.Poller
	keys     *keys.KeyMap
	styles   theme.Styles
	layout   ui.Layout
	list     list.Model
	help     help.Model
	overlay  helpview.Model
	showHelp bool
	status   string
	err      error
	link     string
	quitting bool
}

// New creates an inbox model.
func New(svc Service, k *keys.KeyMap, styles theme.Styles, width, height int) Model {
	layout := ui.NewLayout(styles, width, height)

	delegate := ItemDelegate{styles: styles, now: time.Now}
	l := list.New([]list.Item{}, delegate, width, layout.ContentHeight())
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	h := help.New()
	h.Width = width

	return Model{
		svc:     svc,
		keys:    k,
		styles:  styles,
		layout:  layout,
		list:    l,
		help:    h,
		overlay: helpview.New(k, styles, width, height),
	}
}

// WithPoller makes the inbox follow p instead of loading once. The
// caller owns p and stops it.
func (m Model) WithPoller(p *sync.Poller) Model {
	m.poller = p
	return m
}

// Init loads the notifications, or starts the poller when one is set.
func (m Model) Init() tea.Cmd {
	if m.poller != nil {
		return m.poller.Start()
	}
	return m.load()
}

// Update handles messages for the inbox.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case LoadedMsg:
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		cmd := m.setItems(msg.Notifications)
		return m, cmd

	case sync.ResultMsg:
		var next tea.Cmd
		if m.poller != nil {
			next = m.poller.WaitForNextResult()
		}
		if msg.Err != nil {
			m.err = msg.Err
			return m, next
		}
		m.err = nil
		if msg.NewCount > 0 {
			m.status = fmt.Sprintf("%d new", msg.NewCount)
		}
		cmd := m.setItems(msg.Notifications)
		return m, tea.Batch(cmd, next)

	case markedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if msg.open && msg.link != "" {
			m.link = msg.link
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.load()

	case allMarkedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = fmt.Sprintf("%d marked read", msg.count)
		return m, m.load()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.showHelp && key.Matches(msg, m.keys.Back):
		m.showHelp = false
		return m, nil

	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Back):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.status = ""
		if m.poller != nil {
			m.poller.Refresh()
			return m, nil
		}
		return m, m.load()

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.markAll()

	case key.Matches(msg, m.keys.Open):
		if n, ok := m.selected(); ok {
			return m, m.mark(n.ID, true)
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkRead):
		if n, ok := m.selected(); ok && !n.Read {
			return m, m.mark(n.ID, false)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the inbox.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.overlay.View()
	}

	var body string
	if len(m.list.Items()) == 0 {
		body = lipgloss.NewStyle().
			Width(m.layout.Width).
			Height(m.layout.ContentHeight()).
			Align(lipgloss.Center, lipgloss.Center).
			Render(m.styles.Muted.Render("No notifications."))
	} else {
		body = m.list.View()
	}

	hints := m.help.View(m.keys)
	switch {
	case m.err != nil:
		hints = m.styles.Error.Render(m.err.Error())
	case m.status != "":
		hints = m.status + "  " + hints
	}

	return m.layout.RenderWithFrame(
		m.layout.RenderHeader("Notifications", m.unreadLabel()),
		body,
		m.layout.RenderStatusBar(hints),
	)
}

// Link returns the view the user chose to open, or "".
func (m Model) Link() string {
	return m.link
}

// SetSize updates the layout dimensions.
func (m *Model) SetSize(width, height int) {
	m.layout = ui.NewLayout(m.styles, width, height)
	m.list.SetSize(width, m.layout.ContentHeight())
	m.help.Width = width
	m.overlay.SetSize(width, height)
}

func (m Model) unreadLabel() string {
	unread := 0
	for _, it := range m.list.Items() {
		if n, ok := it.(Item); ok && !n.Notification.Read {
			unread++
		}
	}
	if unread == 0 {
		return ""
	}
	return fmt.Sprintf("%d unread", unread)
}

func (m *Model) setItems(ns []model.Notification) tea.Cmd {
	items := make([]list.Item, len(ns))
	for i, n := range ns {
		items[i] = Item{Notification: n}
	}
	return m.list.SetItems(items)
}

func (m Model) selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

func (m Model) load() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ns, err := svc.Notifications(context.Background())
		return LoadedMsg{Notifications: ns, Err: err}
	}
}

func (m Model) mark(id int, open bool) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		link, err := svc.MarkNotificationRead(context.Background(), id)
		return markedMsg{link: link, open: open, err: err}
	}
}

func (m Model) markAll() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		n, err := svc.MarkAllRead(context.Background())
		return allMarkedMsg{count: n, err: err}
	}
}
