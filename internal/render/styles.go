package render

import "github.com/charmbracelet/lipgloss"

// Color palette - keeping it minimal and accessible.
var (
	ColorSuccess = lipgloss.Color("34")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red
	ColorInfo    = lipgloss.Color("39")  // Blue
	ColorMuted   = lipgloss.Color("240") // Dark gray
)

var (
	PassStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	FailStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	PathStyle = lipgloss.NewStyle().
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
