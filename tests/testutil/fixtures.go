package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/task-rewards/internal/auth"
	"github.com/nhle/task-rewards/internal/docstore"
	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/remote"
	"github.com/nhle/task-rewards/internal/rewards"
	"github.com/nhle/task-rewards/internal/store"
)

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Env is a fully wired client against a FakeRemote.
type Env struct {
	Cache   *store.SQLiteStore
	Remote  *FakeRemote
	Client  *remote.Client
	Docs    *docstore.Store
	Auth    *auth.Manager
	Service *rewards.Service
	Clock   *Clock
}

// Monday is the default fake time: Monday 2024-01-01 09:00 UTC.
var Monday = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

// NewEnv wires a writable client with its own cache to a new FakeRemote.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	return NewEnvWithRemote(t, NewFakeRemote(t), Token)
}

// NewEnvWithRemote wires a client with its own cache to fake, using
// token as the write credential (empty for read-only).
func NewEnvWithRemote(t *testing.T, fake *FakeRemote, token string) *Env {
	t.Helper()

	clock := NewClock(Monday)
	cache := NewTestStore(t)
	logger := zap.NewNop()
	client := remote.NewClient(fake.Config(), token)
	docs := docstore.New(cache, client, logger,
		docstore.WithClock(clock.Now),
		docstore.WithCommitMessage(fake.Config().CommitMessage),
	)
	mgr := auth.NewManager(cache, docs, logger, auth.WithClock(clock.Now))
	svc := rewards.New(docs, mgr, logger, rewards.WithClock(clock.Now))

	return &Env{
		Cache:   cache,
		Remote:  fake,
		Client:  client,
		Docs:    docs,
		Auth:    mgr,
		Service: svc,
		Clock:   clock,
	}
}

// Bootstrap creates the default admin/admin account.
func (e *Env) Bootstrap(t *testing.T) {
	t.Helper()
	if _, err := e.Service.Bootstrap(context.Background(), model.BootstrapConfig{
		AdminUsername: "admin",
		AdminPassword: "admin",
	}); err != nil {
		t.Fatalf("bootstrapping: %v", err)
	}
}

// LoginAs signs in and fails the test on error.
func (e *Env) LoginAs(t *testing.T, username, password string) model.User {
	t.Helper()
	u, err := e.Auth.Login(context.Background(), username, password)
	if err != nil {
		t.Fatalf("signing in as %s: %v", username, err)
	}
	return u
}

// Logout ends the session and fails the test on error.
func (e *Env) Logout(t *testing.T) {
	t.Helper()
	if err := e.Auth.Logout(context.Background()); err != nil {
		t.Fatalf("signing out: %v", err)
	}
}

// Document returns a copy of the client's current snapshot.
func (e *Env) Document(t *testing.T) *model.Document {
	t.Helper()
	doc, err := e.Docs.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return doc
}

// NotificationsFor returns the messages addressed to userID (nil for
// untargeted) in the client's snapshot, oldest first.
func (e *Env) NotificationsFor(t *testing.T, userID *int) []string {
	t.Helper()
	var out []string
	for _, n := range e.Document(t).Notifications {
		switch {
		case userID == nil && n.UserID == nil:
			out = append(out, n.Message)
		case userID != nil && n.UserID != nil && *n.UserID == *userID:
			out = append(out, n.Message)
		}
	}
	return out
}
