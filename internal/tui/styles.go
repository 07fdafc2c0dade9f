package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	// TitleStyle styles the line above the table.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))

	statusStyles = map[string]lipgloss.Style{
		"done":     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"cached":   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"running":  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"degraded": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"failed":   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"pending":  lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
