package rewards

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/task-rewards/internal/model"
)

// RequestView is a request joined with its product and requester.
type RequestView struct {
	model.Request
	ProductName string
	Cost        int
	Username    string
}

// RequestProduct asks for a product. The caller's balance must cover the
// cost, but nothing is debited until an admin approves the request.
func (s *Service) RequestProduct(ctx context.Context, productID int) (model.Request, error) {
	var created model.Request
	err := s.docs.Mutate(ctx, func(doc *model.Document) error {
		u, err := s.caller(doc)
		if err != nil {
			return err
		}
		p, ok := doc.Product(productID)
		if !ok {
			return fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		if u.CurrentPoints < p.Points {
			return s.reject(doc, u.ID, model.LinkProducts,
				"Not enough points for %q: you have %d and it costs %d.",
				p.Name, u.CurrentPoints, p.Points,
			)
		}

		now := s.now()
		created = doc.AddRequest(model.Request{
			UserID:    u.ID,
			ProductID: p.ID,
			CreatedAt: now,
		})
		doc.AddNotification(&u.ID,
			fmt.Sprintf("Your request for %q is waiting for approval.", p.Name),
			model.LinkRequestedProducts, now,
		)
		s.notifyAdmins(doc, u.ID,
			fmt.Sprintf("%s requested %q.", u.Username, p.Name),
			model.LinkRequests,
		)
		s.logger.Info("product requested",
			zap.Int("request_id", created.ID),
			zap.Int("user_id", u.ID),
			zap.Int("product_id", p.ID),
		)
		return nil
	})
	return created, err
}

// CancelRequest withdraws one of the caller's pending requests and
// refunds half the product cost, rounded down.
func (s *Service) CancelRequest(ctx context.Context, requestID int) (int, error) {
	refund := 0
	err := s.docs.Mutate(ctx, func(doc *model.Document) error {
		u, err := s.caller(doc)
		if err != nil {
			return err
		}
		r, ok := doc.Request(requestID)
		if !ok {
			return fmt.Errorf("request %d: %w", requestID, ErrNotFound)
		}
		if r.UserID != u.ID {
			return fmt.Errorf("request %d: %w", requestID, ErrForbidden)
		}

		name := productName(doc, r.ProductID)
		if !r.IsPending() {
			return s.reject(doc, u.ID, model.LinkRequestedProducts,
				"Your request for %q was already %s and cannot be cancelled.", name, r.Status(),
			)
		}

		if p, ok := doc.Product(r.ProductID); ok {
			refund = p.Points / 2
		}
		doc.RemoveRequest(requestID)
		u.CurrentPoints += refund

		doc.AddNotification(&u.ID,
			fmt.Sprintf("Your request for %q was cancelled; %d points were refunded.", name, refund),
			model.LinkRequestedProducts, s.now(),
		)
		s.logger.Info("request cancelled",
			zap.Int("request_id", requestID),
			zap.Int("user_id", u.ID),
			zap.Int("refund", refund),
		)
		return nil
	})
	return refund, err
}

// ApproveRequest accepts a pending request and debits the product cost
// from the requester.
func (s *Service) ApproveRequest(ctx context.Context, requestID int) error {
	return s.docs.Mutate(ctx, func(doc *model.Document) error {
		actor, err := s.admin(doc)
		if err != nil {
			return err
		}
		r, ok := doc.Request(requestID)
		if !ok {
			return fmt.Errorf("request %d: %w", requestID, ErrNotFound)
		}
		p, ok := doc.Product(r.ProductID)
		if !ok {
			return fmt.Errorf("product %d: %w", r.ProductID, ErrNotFound)
		}
		requester, ok := doc.User(r.UserID)
		if !ok {
			return fmt.Errorf("user %d: %w", r.UserID, ErrNotFound)
		}
		if !r.IsPending() {
			return s.reject(doc, actor.ID, model.LinkRequests,
				"Request %d for %q was already %s.", r.ID, p.Name, r.Status(),
			)
		}
		if requester.CurrentPoints < p.Points {
			return s.reject(doc, actor.ID, model.LinkRequests,
				"%s has %d points, not enough for %q (%d).",
				requester.Username, requester.CurrentPoints, p.Name, p.Points,
			)
		}

		now := s.now()
		if err := r.Approve(now); err != nil {
			return err
		}
		requester.CurrentPoints -= p.Points

		doc.AddNotification(&requester.ID,
			fmt.Sprintf("Your request for %q was approved; %d points were deducted.", p.Name, p.Points),
			model.LinkRequestedProducts, now,
		)
		s.logger.Info("request approved",
			zap.Int("request_id", r.ID),
			zap.Int("admin_id", actor.ID),
			zap.Int("user_id", requester.ID),
			zap.Int("points", p.Points),
		)
		return nil
	})
}

// RejectRequest declines a pending request with a justification that is
// shown to the requester. No points move. A blank justification is
// refused before anything is recorded.
func (s *Service) RejectRequest(ctx context.Context, requestID int, justification string) error {
	return s.docs.Mutate(ctx, func(doc *model.Document) error {
		actor, err := s.admin(doc)
		if err != nil {
			return err
		}
		if strings.TrimSpace(justification) == "" {
			return &ValidationError{Reason: "A justification is required to reject a request."}
		}
		r, ok := doc.Request(requestID)
		if !ok {
			return fmt.Errorf("request %d: %w", requestID, ErrNotFound)
		}

		name := productName(doc, r.ProductID)
		now := s.now()
		if err := r.Reject(now, justification); err != nil {
			if errors.Is(err, model.ErrRequestModerated) {
				return s.reject(doc, actor.ID, model.LinkRequests,
					"Request %d for %q was already %s.", r.ID, name, r.Status(),
				)
			}
			return &ValidationError{Reason: err.Error()}
		}

		state := r.State.(model.Rejected)
		doc.AddNotification(&r.UserID,
			fmt.Sprintf("Your request for %q was rejected: %s", name, state.Justification),
			model.LinkRequestedProducts, now,
		)
		s.logger.Info("request rejected",
			zap.Int("request_id", r.ID),
			zap.Int("admin_id", actor.ID),
			zap.Int("user_id", r.UserID),
		)
		return nil
	})
}

// MyRequests lists the caller's requests, newest first.
func (s *Service) MyRequests(ctx context.Context) ([]RequestView, error) {
	var views []RequestView
	err := s.docs.View(ctx, func(doc *model.Document) error {
		u, err := s.caller(doc)
		if err != nil {
			return err
		}
		views = requestViews(doc, func(r model.Request) bool { return r.UserID == u.ID })
		return nil
	})
	return views, err
}

// PendingRequests lists requests awaiting moderation (admin only),
// newest first.
func (s *Service) PendingRequests(ctx context.Context) ([]RequestView, error) {
	var views []RequestView
	err := s.docs.View(ctx, func(doc *model.Document) error {
		if _, err := s.admin(doc); err != nil {
			return err
		}
		views = requestViews(doc, func(r model.Request) bool { return r.IsPending() })
		return nil
	})
	return views, err
}

func requestViews(doc *model.Document, keep func(model.Request) bool) []RequestView {
	var views []RequestView
	for _, r := range doc.Requests {
		if !keep(r) {
			continue
		}
		v := RequestView{Request: r, ProductName: productName(doc, r.ProductID)}
		if p, ok := doc.Product(r.ProductID); ok {
			v.Cost = p.Points
		}
		if u, ok := doc.User(r.UserID); ok {
			v.Username = u.Username
		}
		views = append(views, v)
	}
	slices.SortFunc(views, func(a, b RequestView) int { return b.ID - a.ID })
	return views
}

func productName(doc *model.Document, id int) string {
	if p, ok := doc.Product(id); ok {
		return p.Name
	}
	return fmt.Sprintf("product #%d", id)
}
