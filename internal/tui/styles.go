package tui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFDF5"))
	taglineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AFAFAF"))
	hotlineStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))

	botStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5"))
	userStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Align(lipgloss.Right)

	typingStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)
