package tui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle styles the heading above the step list.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle    = lipgloss.NewStyle().Faint(true)

	stateStyles = map[string]lipgloss.Style{
		"ready":              doneStyle,
		"dependencies-stale": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"version-stale":      lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"absent":             errorStyle,
		"ok":                 doneStyle,
		"warning":            lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"error":              errorStyle,
	}
)

// StateStyle returns the style used to print an environment state or check
// level.
func StateStyle(state string) lipgloss.Style {
	if s, ok := stateStyles[state]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
