package tui

import "github.com/charmbracelet/lipgloss"

// Phase statuses shown in the STATUS column.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusNoStd   = "no_std"
	StatusError   = "error"
)

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	// TitleStyle styles the title above the table and summary.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	// LabelStyle styles field names in summaries.
	LabelStyle = lipgloss.NewStyle().Faint(true)

	statusStyles = map[string]lipgloss.Style{
		StatusOK:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StatusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusNoStd:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		StatusPending: lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

func isTerminal(status string) bool {
	switch status {
	case StatusOK, StatusNoStd, StatusError:
		return true
	}
	return false
}
