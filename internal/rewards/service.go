// Package rewards implements the task and reward operations on the
// shared document: completing tasks, requesting and moderating product
// redemptions, account/task/product administration and rankings.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/task-rewards/internal/auth"
	"github.com/nhle/task-rewards/internal/docstore"
	"github.com/nhle/task-rewards/internal/model"
)

var (
	// ErrNotSignedIn is returned when no valid session exists or the
	// session's user no longer exists.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrForbidden is returned when the caller lacks the required role
	// or does not own the record.
	ErrForbidden = errors.New("not allowed")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError is a rejected precondition. The operation made no
// change other than recording a notification for the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidation reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// Service runs the domain operations against a docstore.Store.
type Service struct {
	docs   *docstore.Store
	viewer docstore.Viewer
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now for completion, request and
// notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. viewer resolves the caller of every operation.
func New(docs *docstore.Store, viewer docstore.Viewer, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		docs:   docs,
		viewer: viewer,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap creates the default admin account when the shared document
// is known to have no users. A remote that could not be reached or
// read is left alone. It reports whether the account was created.
func (s *Service) Bootstrap(ctx context.Context, cfg model.BootstrapConfig) (bool, error) {
	return s.docs.Seed(ctx, func(doc *model.Document) error {
		hash, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("hashing default admin password: %w", err)
		}
		admin := doc.AddUser(model.User{
			Username:     cfg.AdminUsername,
			PasswordHash: hash,
			Role:         model.RoleAdmin,
		})
		doc.AddNotification(nil,
			fmt.Sprintf("Default admin account %q created.", admin.Username),
			model.LinkUsers, s.now(),
		)
		s.logger.Info("bootstrapped default admin", zap.Int("user_id", admin.ID))
		return nil
	})
}

// caller resolves the signed-in user in doc.
func (s *Service) caller(doc *model.Document) (*model.User, error) {
	id, ok := s.viewer.CurrentUserID()
	if !ok {
		return nil, ErrNotSignedIn
	}
	u, ok := doc.User(id)
	if !ok {
		return nil, ErrNotSignedIn
	}
	return u, nil
}

// admin resolves the signed-in user and requires the admin role.
func (s *Service) admin(doc *model.Document) (*model.User, error) {
	u, err := s.caller(doc)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, ErrForbidden
	}
	return u, nil
}

// reject records a notification for userID and returns a
// ValidationError with the same message.
func (s *Service) reject(doc *model.Document, userID int, link, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	doc.AddNotification(&userID, msg, link, s.now())
	s.logger.Info("operation rejected", zap.Int("user_id", userID), zap.String("reason", msg))
	return &ValidationError{Reason: msg}
}

// notifyAdmins sends message to every admin except skip, in ascending
// user ID order.
func (s *Service) notifyAdmins(doc *model.Document, skip int, message, link string) {
	for _, id := range userIDs(doc, func(u model.User) bool { return u.IsAdmin() && u.ID != skip }) {
		doc.AddNotification(&id, message, link, s.now())
	}
}

// Me returns the signed-in user from the latest document.
func (s *Service) Me(ctx context.Context) (model.User, error) {
	var me model.User
	err := s.docs.View(ctx, func(doc *model.Document) error {
		u, err := s.caller(doc)
		if err != nil {
			return err
		}
		me = *u
		return nil
	})
	return me, err
}
