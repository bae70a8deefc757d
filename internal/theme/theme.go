// Package theme holds the display preferences and the lipgloss styles
// derived from them.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/task-rewards/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// Styles is the resolved set of styles for one Preferences value.
type Styles struct {
	Accent lipgloss.Color

	Header    lipgloss.Style
	StatusBar lipgloss.Style
	Panel     lipgloss.Style
	Item      lipgloss.Style
	Selected  lipgloss.Style
	Unread    lipgloss.Style
	Muted     lipgloss.Style
	Help      lipgloss.Style
	Points    lipgloss.Style
	Error     lipgloss.Style

	dark         bool
	highContrast bool
}

// NewStyles resolves the styles for p. Adaptive colors are pinned to
// the dark or light variant according to p.DarkMode.
func NewStyles(p Preferences) Styles {
	if p.Validate() != nil {
		p = DefaultPreferences()
	}
	s := Styles{
		Accent:       lipgloss.Color(p.Color),
		dark:         p.DarkMode,
		highContrast: p.Theme == ThemeHighContrast,
	}

	fg := s.pick(ColorWhite)
	subtle := s.pick(ColorSubtle)
	border := s.pick(ColorBorder)
	muted := s.pick(ColorGray)
	if s.highContrast {
		if s.dark {
			fg, subtle, border, muted = "#FFFFFF", "#000000", "#FFFFFF", "#D0D0D0"
		} else {
			fg, subtle, border, muted = "#000000", "#FFFFFF", "#000000", "#303030"
		}
	}

	s.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(s.Accent).
		Padding(0, 1)
	s.StatusBar = lipgloss.NewStyle().
		Foreground(fg).
		Background(subtle).
		Padding(0, 1)
	s.Panel = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border)
	s.Item = lipgloss.NewStyle().
		PaddingLeft(2).
		Foreground(fg)
	s.Selected = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(s.Accent).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(s.Accent)
	s.Unread = lipgloss.NewStyle().Bold(true).Foreground(fg)
	s.Muted = lipgloss.NewStyle().Foreground(muted)
	s.Help = lipgloss.NewStyle().Foreground(muted).Italic(!s.highContrast)
	s.Points = lipgloss.NewStyle().Bold(true).Foreground(s.pick(ColorYellow))
	s.Error = lipgloss.NewStyle().Bold(true).Foreground(s.pick(ColorRed))
	return s
}

// Dark reports whether the styles target a dark background.
func (s Styles) Dark() bool { return s.dark }

// RequestStatus returns a color-coded badge style for a request status.
func (s Styles) RequestStatus(status model.RequestStatus) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case model.StatusPending:
		return base.Foreground(s.pick(ColorYellow))
	case model.StatusApproved:
		return base.Foreground(s.pick(ColorGreen))
	case model.StatusRejected:
		return base.Foreground(s.pick(ColorRed))
	default:
		return base.Foreground(s.pick(ColorGray))
	}
}

func (s Styles) pick(c lipgloss.AdaptiveColor) lipgloss.Color {
	if s.dark {
		return lipgloss.Color(c.Dark)
	}
	return lipgloss.Color(c.Light)
}
