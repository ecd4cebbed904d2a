package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("39")  // Cyan
	ColorSecondary = lipgloss.Color("212") // Pink
	ColorSuccess   = lipgloss.Color("82")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("245") // Gray
	ColorHighlight = lipgloss.Color("226") // Yellow
)

// Styles for various UI elements
var (
	// Text styles
	Bold      = lipgloss.NewStyle().Bold(true)
	Dim       = lipgloss.NewStyle().Foreground(ColorMuted)
	Highlight = lipgloss.NewStyle().Foreground(ColorHighlight)
	Header    = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	// Status styles
	Success = lipgloss.NewStyle().Foreground(ColorSuccess)
	Warning = lipgloss.NewStyle().Foreground(ColorWarning)
	Error   = lipgloss.NewStyle().Foreground(ColorError)

	// Record styles
	ID       = lipgloss.NewStyle().Foreground(ColorMuted)
	Type     = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	Value    = lipgloss.NewStyle().Foreground(ColorHighlight)
	FilePath = lipgloss.NewStyle().Foreground(ColorPrimary)
	Key      = lipgloss.NewStyle().Foreground(ColorMuted).Width(16)

	// Section styles
	SectionTitle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true).
			MarginTop(1)
	Divider = lipgloss.NewStyle().
		Foreground(ColorMuted)
)

// ShortIDLen is how many id characters list views show.
const ShortIDLen = 8

// HorizontalRule returns a styled horizontal divider.
func HorizontalRule(width int) string {
	if width < 0 {
		width = 0
	}
	return Divider.Render(strings.Repeat("─", width))
}

// ShortID truncates id for list views.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}

// KeyValue renders an aligned "key value" line.
func KeyValue(key string, value any) string {
	return Key.Render(key+":") + " " + fmt.Sprint(value)
}

// FormatOutcome colors a processing outcome name.
func FormatOutcome(outcome string) string {
	switch outcome {
	case "added":
		return Success.Render(outcome)
	case "error":
		return Error.Render(outcome)
	default:
		return Warning.Render(outcome)
	}
}
