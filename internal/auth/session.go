package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/task-rewards/internal/docstore"
	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/store"
)

// ErrInvalidCredentials is returned when the username or password does
// not match.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Manager holds the active session and keeps it in the local cache so a
// restart on the same day stays signed in.
type Manager struct {
	cache  store.Cache
	docs   *docstore.Store
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	current *model.Session
}

var _ docstore.Viewer = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides time.Now; the session expiry is the end of the
// clock's current day.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager and registers it as the Store's viewer.
func NewManager(cache store.Cache, docs *docstore.Store, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		cache:  cache,
		docs:   docs,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	docs.SetViewer(m)
	return m
}

// Restore reads a saved session from the cache. Expired or unreadable
// sessions are discarded.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	raw, err := m.cache.Get(ctx, store.KeySession)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading session: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.Expired(m.now()) {
		if err != nil {
			m.logger.Warn("discarding unreadable session", zap.Error(err))
		}
		return false, m.clear(ctx)
	}

	m.mu.Lock()
	m.current = &sess
	m.mu.Unlock()

	m.logger.Info("session restored", zap.String("session_id", sess.ID), zap.Int("user_id", sess.UserID))
	return true, nil
}

// Login verifies the credentials against the latest document and starts
// a session that lasts until the end of the day. A failed attempt is
// recorded as a system notification.
func (m *Manager) Login(ctx context.Context, username, password string) (model.User, error) {
	var (
		user  model.User
		found bool
	)
	err := m.docs.Mutate(ctx, func(doc *model.Document) error {
		u, ok := doc.UserByName(username)
		if ok && CheckPassword(u.PasswordHash, password) {
			user, found = *u, true
			return nil
		}
		doc.AddNotification(nil,
			fmt.Sprintf("Failed sign-in attempt for %q.", username),
			"", m.now().UTC(),
		)
		return ErrInvalidCredentials
	})
	if !found {
		m.logger.Info("sign-in rejected", zap.String("username", username))
		if err == nil {
			err = ErrInvalidCredentials
		}
		return model.User{}, err
	}
	if err != nil {
		return model.User{}, err
	}

	now := m.now()
	sess := model.Session{
		ID:     uuid.New().String(),
		UserID: user.ID,
		Expiry: model.EndOfDay(now),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return model.User{}, fmt.Errorf("encoding session: %w", err)
	}
	if err := m.cache.Set(ctx, store.KeySession, string(data)); err != nil {
		return model.User{}, fmt.Errorf("saving session: %w", err)
	}

	m.mu.Lock()
	m.current = &sess
	m.mu.Unlock()

	m.logger.Info("signed in",
		zap.String("session_id", sess.ID),
		zap.Int("user_id", user.ID),
		zap.Time("expiry", sess.Expiry),
	)
	return user, nil
}

// Logout ends the session and removes it from the cache.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	sess := m.current
	m.mu.Unlock()

	if sess != nil {
		m.logger.Info("signed out", zap.String("session_id", sess.ID), zap.Int("user_id", sess.UserID))
	}
	return m.clear(ctx)
}

// CurrentUserID returns the signed-in user. An expired session is
// dropped.
func (m *Manager) CurrentUserID() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return 0, false
	}
	if m.current.Expired(m.now()) {
		m.logger.Info("session expired", zap.String("session_id", m.current.ID))
		m.current = nil
		if err := m.cache.Delete(context.Background(), store.KeySession); err != nil {
			m.logger.Warn("removing expired session", zap.Error(err))
		}
		return 0, false
	}
	return m.current.UserID, true
}

// Session returns a copy of the active session.
func (m *Manager) Session() (model.Session, bool) {
	if _, ok := m.CurrentUserID(); !ok {
		return model.Session{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return model.Session{}, false
	}
	return *m.current, true
}

func (m *Manager) clear(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.cache.Delete(ctx, store.KeySession); err != nil {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
