// Package ui renders command output: aligned tables, step progress and the
// lipgloss styles shared by the commands.
package ui
