package ui

import "github.com/charmbracelet/lipgloss"

// Styles shared by the commands.
var (
	Heading = lipgloss.NewStyle().Bold(true)
	OK      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	Warn    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	Dim     = lipgloss.NewStyle().Faint(true)
)
