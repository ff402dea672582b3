package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 2)

	title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ccff"))

	label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899")).
		Width(18)

	value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#eeeeee"))

	good = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ff88"))

	bad = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ff4444"))

	subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))
)

type row struct {
	key, val string
}

// card renders a titled panel of label/value rows.
func card(heading string, rows []row) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, title.Render(heading))
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label.Render(r.key), value.Render(r.val)))
	}
	return panel.Render(strings.Join(lines, "\n"))
}

func fmtFloat(v float64) string {
	return fmt.Sprintf("%.6g", v)
}
