package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	selectedStyle = lipgloss.NewStyle().Bold(true)
	errorStyle    = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 1)

	boxChecked   = "☑"
	boxUnchecked = "☐"
)
