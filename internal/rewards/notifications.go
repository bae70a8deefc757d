package rewards

import (
	"context"
	"fmt"
	"slices"

	"github.com/nhle/task-rewards/internal/model"
)

// Notifications lists the caller's notifications, newest first.
func (s *Service) Notifications(ctx context.Context) ([]model.Notification, error) {
	var out []model.Notification
	err := s.docs.View(ctx, func(doc *model.Document) error {
		u, err := s.caller(doc)
		if err != nil {
			return err
		}
		for _, n := range doc.Notifications {
			if n.For(u.ID) {
				out = append(out, n)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b model.Notification) int { return b.ID - a.ID })
	return out, err
}

// UnreadCount counts the caller's unread notifications in the current
// snapshot, without reloading.
func (s *Service) UnreadCount() int {
	n := 0
	_ = s.docs.Read(func(doc *model.Document) error {
		u, err := s.caller(doc)
		if err != nil {
			return err
		}
		for _, notif := range doc.Notifications {
			if notif.For(u.ID) && !notif.Read {
				n++
			}
		}
		return nil
	})
	return n
}

// MarkNotificationRead flags one of the caller's notifications as read
// and returns the view it links to.
func (s *Service) MarkNotificationRead(ctx context.Context, notificationID int) (string, error) {
	link := ""
	err := s.docs.Mutate(ctx, func(doc *model.Document) error {
		u, err := s.caller(doc)
		if err != nil {
			return err
		}
		n, ok := doc.Notification(notificationID)
		if !ok || !n.For(u.ID) {
			return fmt.Errorf("notification %d: %w", notificationID, ErrNotFound)
		}
		n.Read = true
		link = n.Link
		return nil
	})
	return link, err
}

// MarkAllRead flags every notification of the caller as read.
func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	marked := 0
	err := s.docs.Mutate(ctx, func(doc *model.Document) error {
		u, err := s.caller(doc)
		if err != nil {
			return err
		}
		for i := range doc.Notifications {
			n := &doc.Notifications[i]
			if n.For(u.ID) && !n.Read {
				n.Read = true
				marked++
			}
		}
		return nil
	})
	return marked, err
}
