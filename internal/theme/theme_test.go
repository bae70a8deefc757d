package theme_test

import (
	"context"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/store"
	"github.com/nhle/task-rewards/internal/theme"
	"github.com/nhle/task-rewards/tests/testutil"
)

func TestLoadPreferencesDefaults(t *testing.T) {
	cache := testutil.NewTestStore(t)

	p, err := theme.LoadPreferences(context.Background(), cache)
	require.NoError(t, err)
	assert.Equal(t, theme.DefaultPreferences(), p)
}

func TestSaveAndLoadPreferences(t *testing.T) {
	ctx := context.Background()
	cache := testutil.NewTestStore(t)

	want := theme.Preferences{Theme: theme.ThemeHighContrast, Color: "#ff8800", DarkMode: false}
	require.NoError(t, theme.SavePreferences(ctx, cache, want))

	raw, err := cache.Get(ctx, store.KeyDarkMode)
	require.NoError(t, err)
	assert.Equal(t, "false", raw)

	got, err := theme.LoadPreferences(ctx, cache)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSavePreferencesRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	cache := testutil.NewTestStore(t)

	err := theme.SavePreferences(ctx, cache, theme.Preferences{Theme: "neon", Color: "#fff"})
	assert.Error(t, err)

	err = theme.SavePreferences(ctx, cache, theme.Preferences{Theme: theme.ThemeDefault, Color: "blue"})
	assert.Error(t, err)

	_, err = cache.Get(ctx, store.KeyTheme)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoadPreferencesIgnoresGarbage(t *testing.T) {
	ctx := context.Background()
	cache := testutil.NewTestStore(t)
	require.NoError(t, cache.Set(ctx, store.KeyTheme, "sparkly"))
	require.NoError(t, cache.Set(ctx, store.KeyColor, "#123456"))
	require.NoError(t, cache.Set(ctx, store.KeyDarkMode, "maybe"))

	p, err := theme.LoadPreferences(ctx, cache)
	require.NoError(t, err)
	assert.Equal(t, theme.ThemeDefault, p.Theme)
	assert.Equal(t, "#123456", p.Color)
	assert.True(t, p.DarkMode)
}

func TestNewStylesUsesAccentAndMode(t *testing.T) {
	s := theme.NewStyles(theme.Preferences{Theme: theme.ThemeDefault, Color: "#ff8800", DarkMode: false})
	assert.Equal(t, lipgloss.Color("#ff8800"), s.Accent)
	assert.False(t, s.Dark())
	assert.Equal(t, lipgloss.Color(theme.ColorGreen.Light), s.RequestStatus(model.StatusApproved).GetForeground())

	dark := theme.NewStyles(theme.DefaultPreferences())
	assert.Equal(t, lipgloss.Color(theme.ColorRed.Dark), dark.RequestStatus(model.StatusRejected).GetForeground())
}

func TestNewStylesFallsBackOnInvalidPreferences(t *testing.T) {
	s := theme.NewStyles(theme.Preferences{Theme: "nope", Color: "x"})
	assert.Equal(t, lipgloss.Color(theme.DefaultAccent), s.Accent)
}
