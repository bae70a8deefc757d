package inbox

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/task-rewards/internal/keys"
	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/sync"
	"github.com/nhle/task-rewards/internal/theme"
)

type fakeService struct {
	notifications []model.Notification
	marked        []int
	markedAll     int
}

func (f *fakeService) Notifications(context.Context) ([]model.Notification, error) {
	return f.notifications, nil
}

func (f *fakeService) MarkNotificationRead(_ context.Context, id int) (string, error) {
	f.marked = append(f.marked, id)
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications[i].Read = true
			return f.notifications[i].Link, nil
		}
	}
	return "", nil
}

func (f *fakeService) MarkAllRead(context.Context) (int, error) {
	n := 0
	for i := range f.notifications {
		if !f.notifications[i].Read {
			f.notifications[i].Read = true
			n++
		}
	}
	f.markedAll++
	return n, nil
}

func newLoaded(t *testing.T, svc *fakeService) Model {
	t.Helper()
	m := New(svc, keys.DefaultKeyMap(), theme.NewStyles(theme.DefaultPreferences()), 80, 24)
	cmd := m.Init()
	require.NotNil(t, cmd)

	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func sampleNotifications() []model.Notification {
	now := time.Now()
	return []model.Notification{
		{ID: 3, Message: "Your request for \"Sticker\" was approved", Link: model.LinkRequestedProducts, CreatedAt: now},
		{ID: 1, Message: "New task assigned", Link: model.LinkTasks, CreatedAt: now.Add(-time.Hour)},
	}
}

func TestEnterMarksReadAndQuitsWithLink(t *testing.T) {
	svc := &fakeService{notifications: sampleNotifications()}
	m := newLoaded(t, svc)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.NotNil(t, cmd)

	updated, cmd = m.Update(cmd())
	m = updated.(Model)

	assert.Equal(t, []int{3}, svc.marked)
	assert.Equal(t, model.LinkRequestedProducts, m.Link())
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestMarkReadStaysInInbox(t *testing.T) {
	svc := &fakeService{notifications: sampleNotifications()}
	m := newLoaded(t, svc)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	m = updated.(Model)
	require.NotNil(t, cmd)

	updated, cmd = m.Update(cmd())
	m = updated.(Model)
	assert.Empty(t, m.Link())
	require.NotNil(t, cmd)

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	n, ok := m.selected()
	require.True(t, ok)
	assert.True(t, n.Read)
}

func TestMarkAllRead(t *testing.T) {
	svc := &fakeService{notifications: sampleNotifications()}
	m := newLoaded(t, svc)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	m = updated.(Model)
	require.NotNil(t, cmd)

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	assert.Equal(t, 1, svc.markedAll)
	assert.Equal(t, "2 marked read", m.status)
}

func TestHeaderCountsOnlyUnread(t *testing.T) {
	ns := sampleNotifications()
	ns[1].Read = true
	m := newLoaded(t, &fakeService{notifications: ns})
	assert.Contains(t, m.View(), "1 unread")

	ns[0].Read = true
	m = newLoaded(t, &fakeService{notifications: ns})
	assert.NotContains(t, m.View(), "unread")
}

func TestEmptyInboxView(t *testing.T) {
	m := newLoaded(t, &fakeService{})
	assert.Contains(t, m.View(), "No notifications.")
}

func TestPollerFeedsTheInbox(t *testing.T) {
	svc := &fakeService{notifications: sampleNotifications()}
	p := sync.New(svc, time.Hour, nil)
	defer p.Stop()

	m := New(svc, keys.DefaultKeyMap(), theme.NewStyles(theme.DefaultPreferences()), 80, 24).WithPoller(p)
	updated, cmd := m.Update(m.Init()())
	m = updated.(Model)

	assert.Len(t, m.list.Items(), 2)
	assert.Empty(t, m.status)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "2 unread")
}

func TestPollResultAnnouncesNewNotifications(t *testing.T) {
	m := newLoaded(t, &fakeService{})

	updated, _ := m.Update(sync.ResultMsg{Notifications: sampleNotifications(), NewCount: 1})
	m = updated.(Model)
	assert.Len(t, m.list.Items(), 2)
	assert.Equal(t, "1 new", m.status)

	updated, _ = m.Update(sync.ResultMsg{Err: errors.New("remote fetch: status 503")})
	m = updated.(Model)
	assert.Len(t, m.list.Items(), 2)
	assert.Contains(t, m.View(), "status 503")
}

func TestHelpOverlay(t *testing.T) {
	m := newLoaded(t, &fakeService{notifications: sampleNotifications()})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = updated.(Model)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.NotContains(t, m.View(), "Keyboard Shortcuts")
	assert.False(t, m.quitting)
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", relativeTime(now, now.Add(-10*time.Second)))
	assert.Equal(t, "5m ago", relativeTime(now, now.Add(-5*time.Minute)))
	assert.Equal(t, "3h ago", relativeTime(now, now.Add(-3*time.Hour)))
	assert.Equal(t, "2d ago", relativeTime(now, now.Add(-48*time.Hour)))
	assert.Equal(t, "Dec 25", relativeTime(now, time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)))
}
