package viz

import "github.com/charmbracelet/lipgloss"

type styles struct {
	canvas    lipgloss.Style
	stats     lipgloss.Style
	header    lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	graph     lipgloss.Style
	help      lipgloss.Style
	running   lipgloss.Style
	paused    lipgloss.Style
	recording lipgloss.Style
}

const statsWidth = 45

func themeStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Padding(1, 2).Foreground(t.Cells),
		stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(statsWidth),
		header:    lipgloss.NewStyle().Foreground(t.Accent).Bold(true).MarginBottom(1),
		label:     lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:     lipgloss.NewStyle().Foreground(t.Text),
		graph:     lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		help:      lipgloss.NewStyle().Foreground(t.Muted).MarginTop(2),
		running:   lipgloss.NewStyle().Bold(true).Foreground(t.Running),
		paused:    lipgloss.NewStyle().Bold(true).Foreground(t.Paused),
		recording: lipgloss.NewStyle().Bold(true).Foreground(t.Alert).Blink(true),
	}
}
