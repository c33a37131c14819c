// Package ui holds the small lipgloss palette cmd/artisan's commands share
// for progress and status output.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	Success = lipgloss.Color("#8BC34A")
	Warning = lipgloss.Color("#FFC107")
	Error   = lipgloss.Color("#e53935")
	Info    = lipgloss.Color("#2196F3")
	Muted   = lipgloss.Color("#9aa0a6")
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(Success).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(Info)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// ProgressBar renders a simple width-wide bar at pct (0-100).
func ProgressBar(pct int, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := width * pct / 100
	bar := make([]byte, width)
	for i := range bar {
		if i < filled {
			bar[i] = '='
		} else {
			bar[i] = '-'
		}
	}
	return InfoStyle.Render("[" + string(bar) + "]")
}
