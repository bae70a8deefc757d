package theme

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nhle/task-rewards/internal/store"
)

// Theme names.
const (
	ThemeDefault      = "default"
	ThemeHighContrast = "high-contrast"
)

// DefaultAccent is the accent color used until the user picks one.
const DefaultAccent = "#5B9BD5"

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Preferences are the per-device display settings. Each field lives
// under its own cache key.
type Preferences struct {
	Theme    string
	Color    string
	DarkMode bool
}

// DefaultPreferences returns the settings used on a fresh device.
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeDefault, Color: DefaultAccent, DarkMode: true}
}

// Validate checks the theme name and the accent color.
func (p Preferences) Validate() error {
	switch p.Theme {
	case ThemeDefault, ThemeHighContrast:
	default:
		return fmt.Errorf("unknown theme %q", p.Theme)
	}
	if !hexColor.MatchString(p.Color) {
		return fmt.Errorf("color %q is not a hex color like #5B9BD5", p.Color)
	}
	return nil
}

// LoadPreferences reads the preferences from the cache. Missing or
// unreadable values fall back to the defaults one field at a time.
func LoadPreferences(ctx context.Context, cache store.Cache) (Preferences, error) {
	p := DefaultPreferences()

	if v, ok, err := lookup(ctx, cache, store.KeyTheme); err != nil {
		return p, err
	} else if ok && (v == ThemeDefault || v == ThemeHighContrast) {
		p.Theme = v
	}

	if v, ok, err := lookup(ctx, cache, store.KeyColor); err != nil {
		return p, err
	} else if ok && hexColor.MatchString(v) {
		p.Color = v
	}

	if v, ok, err := lookup(ctx, cache, store.KeyDarkMode); err != nil {
		return p, err
	} else if ok {
		if dark, perr := strconv.ParseBool(v); perr == nil {
			p.DarkMode = dark
		}
	}

	return p, nil
}

// SavePreferences validates p and writes each field to the cache.
func SavePreferences(ctx context.Context, cache store.Cache, p Preferences) error {
	p.Theme = strings.TrimSpace(p.Theme)
	p.Color = strings.TrimSpace(p.Color)
	if err := p.Validate(); err != nil {
		return err
	}

	values := []struct{ key, value string }{
		{store.KeyTheme, p.Theme},
		{store.KeyColor, p.Color},
		{store.KeyDarkMode, strconv.FormatBool(p.DarkMode)},
	}
	for _, kv := range values {
		if err := cache.Set(ctx, kv.key, kv.value); err != nil {
			return fmt.Errorf("saving %s preference: %w", kv.key, err)
		}
	}
	return nil
}

func lookup(ctx context.Context, cache store.Cache, key string) (string, bool, error) {
	v, err := cache.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s preference: %w", key, err)
	}
	return strings.TrimSpace(v), true, nil
}
