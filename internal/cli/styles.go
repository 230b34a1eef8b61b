package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/thenoetrevino/kansync/internal/config/colors"
)

// printStyles are the lipgloss styles for human-readable output
type printStyles struct {
	Column lipgloss.Style
	Title  lipgloss.Style
	Card   lipgloss.Style
	Subtle lipgloss.Style
	OK     lipgloss.Style
	Bad    lipgloss.Style
}

func newPrintStyles(cs colors.ColorScheme) printStyles {
	return printStyles{
		Column: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(cs.ColumnBorder)).
			Padding(0, 1).
			Width(32),
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(cs.Title)),
		Card:   lipgloss.NewStyle().Foreground(lipgloss.Color(cs.Normal)),
		Subtle: lipgloss.NewStyle().Foreground(lipgloss.Color(cs.Subtle)),
		OK:     lipgloss.NewStyle().Foreground(lipgloss.Color(cs.Create)),
		Bad:    lipgloss.NewStyle().Foreground(lipgloss.Color(cs.ErrorFg)),
	}
}
