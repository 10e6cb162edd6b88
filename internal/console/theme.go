package console

import (
	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#EAB308") // Amber
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(Text)

	hintStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)

	linkStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Underline(true)
)

// Layout
var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	exampleStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Accent).
			PaddingLeft(1)
)

// States
var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	unselectedStyle = lipgloss.NewStyle().
			Foreground(Text)

	correctStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	partialStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	incorrectStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)
