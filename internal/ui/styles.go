package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorText    = lipgloss.Color("#333333")
	colorMuted   = lipgloss.Color("#999999")
	colorLabel   = lipgloss.Color("#555555")
	colorSuccess = lipgloss.Color("#04B575")
	colorError   = lipgloss.Color("#FF4D4F")
)

// panelStyles groups the styles used by the overlay panel
type panelStyles struct {
	Container    lipgloss.Style
	Title        lipgloss.Style
	Label        lipgloss.Style
	Value        lipgloss.Style
	Input        lipgloss.Style
	FocusedInput lipgloss.Style
	Error        lipgloss.Style
	Positive     lipgloss.Style
	Negative     lipgloss.Style
	Status       lipgloss.Style
	Help         lipgloss.Style
}

func newPanelStyles() panelStyles {
	return panelStyles{
		Container: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2).
			Width(52),
		Title: lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			MarginBottom(1),
		Label: lipgloss.NewStyle().
			Foreground(colorLabel).
			Width(22),
		Value: lipgloss.NewStyle().
			Foreground(colorText),
		Input: lipgloss.NewStyle().
			Foreground(colorText),
		FocusedInput: lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true),
		Positive: lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true),
		Negative: lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true),
		Status: lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1),
	}
}
