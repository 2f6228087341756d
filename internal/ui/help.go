package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHelp draws the key bindings of FullHelp as a centered box.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := styles.WarningText.Width(12)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Клавиши"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))

	for i, group := range m.keys.FullHelp() {
		b.WriteString("\n\n")
		if i < len(helpTitles) {
			b.WriteString(styles.AccentText.Bold(true).Render(helpTitles[i]))
			b.WriteString("\n")
		}
		for j, binding := range group {
			h := binding.Help()
			if j > 0 {
				b.WriteString("\n")
			}
			b.WriteString(keyStyle.Render(h.Key) + styles.Text.Render(h.Desc))
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(44).
		Render(b.String())
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)))
}
