package view

import "github.com/charmbracelet/lipgloss"

type style struct {
	base     lipgloss.Style
	title    lipgloss.Style
	label    lipgloss.Style
	selected lipgloss.Style
	hint     lipgloss.Style
	warning  lipgloss.Style
	states   map[string]lipgloss.Style
}

func defaultStyle() style {
	return style{
		base: lipgloss.NewStyle().Padding(1, 2),
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		label:    lipgloss.NewStyle().Width(14),
		selected: lipgloss.NewStyle().Width(14).Bold(true).Foreground(lipgloss.Color("#874BFD")),
		hint:     lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
		states: map[string]lipgloss.Style{
			"prelude": lipgloss.NewStyle().Foreground(lipgloss.Color("#F7DC6F")),
			"taking":  lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
			"snoozed": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		},
	}
}
