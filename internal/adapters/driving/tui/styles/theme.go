// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette and styling for the TUI.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Success indicates positive outcomes.
	Success lipgloss.Color

	// Warning indicates caution.
	Warning lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Border is the unfocused border colour.
	Border lipgloss.Color

	// Surface is the background of bars and cards.
	Surface lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#3B82F6"), // Blue
		Secondary:  lipgloss.Color("#06B6D4"), // Cyan
		Foreground: lipgloss.Color("#E2E8F0"), // Slate 200
		Muted:      lipgloss.Color("#64748B"), // Slate 500
		Success:    lipgloss.Color("#A6E3A1"), // Green
		Warning:    lipgloss.Color("#F9E2AF"), // Yellow
		Error:      lipgloss.Color("#F38BA8"), // Red
		Border:     lipgloss.Color("#334155"), // Slate 700
		Surface:    lipgloss.Color("#0F172A"), // Slate 900
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style

	// InputField wraps text inputs.
	InputField lipgloss.Style

	// StatusBar is the bottom bar.
	StatusBar lipgloss.Style

	// Help renders key hints.
	Help lipgloss.Style

	// Panel and PanelFocused frame the sidebar and chat areas.
	Panel        lipgloss.Style
	PanelFocused lipgloss.Style

	// UserLabel and AssistantLabel prefix transcript turns.
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style

	// SourceCard frames one citation.
	SourceCard lipgloss.Style

	// Badge highlights short facts such as match scores.
	Badge lipgloss.Style

	// Prompt renders developer-mode prompts.
	Prompt lipgloss.Style

	// Dialog frames modal confirmations and alerts.
	Dialog lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	panel := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground).
			Background(theme.Primary),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.Surface).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Panel: panel,

		PanelFocused: panel.
			BorderForeground(theme.Primary),

		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		AssistantLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		SourceCard: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderTop(false).
			BorderRight(false).
			BorderBottom(false).
			BorderForeground(theme.Primary).
			PaddingLeft(1),

		Badge: lipgloss.NewStyle().
			Foreground(theme.Secondary),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.Surface).
			Padding(0, 1),

		Dialog: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Primary).
			Padding(1, 2),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
