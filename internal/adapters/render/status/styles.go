package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	browser   lipgloss.Style
	detail    lipgloss.Style
	label     lipgloss.Style
	connected lipgloss.Style
	idle      lipgloss.Style
	busy      lipgloss.Style
	warning   lipgloss.Style
	section   lipgloss.Style
	empty     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		browser:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		label:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		connected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")),
		idle:      lipgloss.NewStyle().Faint(true),
		busy:      lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		warning:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:   lipgloss.NewStyle().MarginTop(1),
		empty:     lipgloss.NewStyle().Faint(true),
	}
}
