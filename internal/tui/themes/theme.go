// Package themes holds the colour themes of the review screen.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Header        lipgloss.Style
	Selected      lipgloss.Style
	Detail        lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusMuted   lipgloss.Style
	Primary       lipgloss.Color
	Border        lipgloss.Color
	Muted         lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary: lipgloss.Color("#F4A259"),
	Border:  lipgloss.Color("#404040"),
	Muted:   lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#F4A259")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Header: lipgloss.NewStyle().
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#404040")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#F4A259")).
		Foreground(lipgloss.Color("#1a1a1a")).
		Bold(true),
	Detail: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),

	StatusSuccess: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")).
		Bold(true),
	StatusWarning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f59e0b")).
		Bold(true),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")),
	StatusMuted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")).
		Italic(true),
}

// Plain drops colours, for terminals without colour support.
var Plain = Theme{
	Title:         lipgloss.NewStyle().Bold(true),
	Subtitle:      lipgloss.NewStyle(),
	Header:        lipgloss.NewStyle().Bold(true),
	Selected:      lipgloss.NewStyle().Reverse(true),
	Detail:        lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1),
	StatusSuccess: lipgloss.NewStyle(),
	StatusWarning: lipgloss.NewStyle().Bold(true),
	StatusError:   lipgloss.NewStyle().Bold(true),
	StatusInfo:    lipgloss.NewStyle(),
	StatusMuted:   lipgloss.NewStyle().Italic(true),
}
