package auth_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/task-rewards/internal/auth"
	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/store"
	"github.com/nhle/task-rewards/tests/testutil"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, auth.CheckPassword(hash, "s3cret"))
	assert.False(t, auth.CheckPassword(hash, "S3cret"))
	assert.False(t, auth.CheckPassword("not-a-hash", "s3cret"))

	_, err = auth.HashPassword("")
	assert.ErrorIs(t, err, auth.ErrEmptyPassword)
}

func TestLoginStartsSessionUntilEndOfDay(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	env.Bootstrap(t)

	u, err := env.Auth.Login(ctx, " ADMIN ", "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Username)

	id, ok := env.Auth.CurrentUserID()
	require.True(t, ok)
	assert.Equal(t, u.ID, id)

	sess, ok := env.Auth.Session()
	require.True(t, ok)
	assert.Equal(t, model.EndOfDay(testutil.Monday), sess.Expiry)

	raw, err := env.Cache.Get(ctx, store.KeySession)
	require.NoError(t, err)
	var saved model.Session
	require.NoError(t, json.Unmarshal([]byte(raw), &saved))
	assert.Equal(t, sess.ID, saved.ID)
	assert.Equal(t, u.ID, saved.UserID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	env.Bootstrap(t)

	_, err := env.Auth.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = env.Auth.Login(ctx, "nobody", "admin")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, ok := env.Auth.CurrentUserID()
	assert.False(t, ok)

	_, err = env.Cache.Get(ctx, store.KeySession)
	assert.ErrorIs(t, err, store.ErrNotFound)

	msgs := env.NotificationsFor(t, nil)
	assert.Contains(t, msgs, `Failed sign-in attempt for "admin".`)
	assert.Contains(t, msgs, `Failed sign-in attempt for "nobody".`)

	stored := env.Remote.Document(t)
	assert.Equal(t, `Failed sign-in attempt for "nobody".`, stored.Notifications[len(stored.Notifications)-1].Message)
}

func TestRestoreSameDay(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	env.Bootstrap(t)
	u := env.LoginAs(t, "admin", "admin")

	restarted := auth.NewManager(env.Cache, env.Docs, zap.NewNop(), auth.WithClock(env.Clock.Now))
	env.Clock.Advance(2 * time.Hour)

	ok, err := restarted.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	id, ok := restarted.CurrentUserID()
	require.True(t, ok)
	assert.Equal(t, u.ID, id)
}

func TestRestoreDiscardsExpiredSession(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	env.Bootstrap(t)
	env.LoginAs(t, "admin", "admin")

	env.Clock.Advance(24 * time.Hour)
	restarted := auth.NewManager(env.Cache, env.Docs, zap.NewNop(), auth.WithClock(env.Clock.Now))

	ok, err := restarted.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = env.Cache.Get(ctx, store.KeySession)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRestoreWithoutSession(t *testing.T) {
	env := testutil.NewEnv(t)

	ok, err := env.Auth.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestoreDiscardsUnreadableSession(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	require.NoError(t, env.Cache.Set(ctx, store.KeySession, "{broken"))

	ok, err := env.Auth.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = env.Cache.Get(ctx, store.KeySession)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessionExpiresAtEndOfDay(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	env.Bootstrap(t)
	env.LoginAs(t, "admin", "admin")

	env.Clock.Advance(14*time.Hour + 59*time.Minute)
	_, ok := env.Auth.CurrentUserID()
	require.True(t, ok)

	env.Clock.Advance(time.Minute)
	_, ok = env.Auth.CurrentUserID()
	assert.False(t, ok)

	_, err := env.Cache.Get(ctx, store.KeySession)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	env.Bootstrap(t)
	env.LoginAs(t, "admin", "admin")

	env.Logout(t)

	_, ok := env.Auth.CurrentUserID()
	assert.False(t, ok)
	_, ok = env.Auth.Session()
	assert.False(t, ok)
	_, err := env.Cache.Get(ctx, store.KeySession)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, env.Auth.Logout(ctx))
}
