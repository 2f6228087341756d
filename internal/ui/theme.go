package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/trainlog/internal/workout"
)

// Theme is a named color palette. Colors are hex strings.
type Theme struct {
	Name string

	Background    string
	Surface       string
	SelectionBg   string
	SelectionText string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Set glyph colors.
	Pending   string
	Completed string
	Skipped   string
}

// StateColor returns the glyph color of a set state.
func (t Theme) StateColor(st workout.SetState) string {
	switch st {
	case workout.Completed:
		return t.Completed
	case workout.Skipped:
		return t.Skipped
	default:
		return t.Pending
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	theme Theme
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Styles builds the Lipgloss styles of the theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header: fg(t.Text).Background(lipgloss.Color(t.Surface)).Padding(0, 1),
		Footer: fg(t.Muted).Padding(0, 1),
		Logo:   fg(t.Accent).Bold(true),
		Selected: fg(t.SelectionText).
			Background(lipgloss.Color(t.SelectionBg)),

		theme: t,
	}
}

// StateStyle returns the glyph style of a set state.
func (s Styles) StateStyle(st workout.SetState) lipgloss.Style {
	return fg(s.theme.StateColor(st)).Bold(true)
}

var themeOrder = []Theme{draculaTheme(), nordTheme()}

// GetTheme returns a theme by name, Dracula when the name is unknown.
func GetTheme(name string) Theme {
	for _, t := range themeOrder {
		if t.Name == name {
			return t
		}
	}
	return defaultTheme()
}

// NextTheme returns the theme name after current, wrapping around.
func NextTheme(current string) string {
	for i, t := range themeOrder {
		if t.Name == current {
			return themeOrder[(i+1)%len(themeOrder)].Name
		}
	}
	return themeOrder[0].Name
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	names := make([]string, len(themeOrder))
	for i, t := range themeOrder {
		names[i] = t.Name
	}
	return names
}

func defaultTheme() Theme {
	return draculaTheme()
}

func draculaTheme() Theme {
	return Theme{
		Name: "Dracula",

		Background:    "#191A21",
		Surface:       "#282A36",
		SelectionBg:   "#44475A",
		SelectionText: "#F8F8F2",

		Text:    "#F8F8F2",
		Muted:   "#6272A4",
		Faint:   "#44475A",
		Accent:  "#BD93F9",
		Success: "#50FA7B",
		Warning: "#FFB86C",
		Danger:  "#FF5555",
		Info:    "#8BE9FD",

		Pending:   "#6272A4",
		Completed: "#50FA7B",
		Skipped:   "#FFB86C",
	}
}

func nordTheme() Theme {
	// https://www.nordtheme.com/docs/colors-and-palettes
	return Theme{
		Name: "Nord",

		Background:    "#2E3440", // nord0
		Surface:       "#3B4252", // nord1
		SelectionBg:   "#5E81AC", // nord10
		SelectionText: "#ECEFF4", // nord6

		Text:    "#E5E9F0", // nord5
		Muted:   "#7B88A1",
		Faint:   "#4C566A", // nord3
		Accent:  "#88C0D0", // nord8
		Success: "#A3BE8C", // nord14
		Warning: "#EBCB8B", // nord13
		Danger:  "#BF616A", // nord11
		Info:    "#81A1C1", // nord9

		Pending:   "#4C566A",
		Completed: "#A3BE8C",
		Skipped:   "#D08770", // nord12
	}
}
