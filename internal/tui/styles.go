package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/thenoetrevino/kansync/internal/config/colors"
)

const (
	columnWidth = 30
	cardWidth   = columnWidth - 4
)

// Styles holds every lipgloss style the board uses. Built once per color scheme.
type Styles struct {
	Column       lipgloss.Style
	ActiveColumn lipgloss.Style
	ColumnTitle  lipgloss.Style
	Card         lipgloss.Style
	SelectedCard lipgloss.Style
	Subtle       lipgloss.Style
	InputBox     lipgloss.Style
	ConfirmBox   lipgloss.Style
	DetailBox    lipgloss.Style
	Info         lipgloss.Style
	Warning      lipgloss.Style
	Error        lipgloss.Style
	Header       lipgloss.Style
}

// NewStyles builds the board styles from a color scheme
func NewStyles(cs colors.ColorScheme) Styles {
	column := lipgloss.NewStyle().
		Width(columnWidth).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(cs.ColumnBorder))

	card := lipgloss.NewStyle().
		Width(cardWidth).
		Padding(0, 1).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(cs.CardBorder)).
		Foreground(lipgloss.Color(cs.Normal))

	return Styles{
		Column:       column,
		ActiveColumn: column.BorderForeground(lipgloss.Color(cs.Accent)),
		ColumnTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(cs.Title)),
		Card:         card,
		SelectedCard: card.Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color(cs.SelectedBorder)),
		Subtle:       lipgloss.NewStyle().Foreground(lipgloss.Color(cs.Subtle)),
		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(cs.Create)).
			Padding(0, 1),
		ConfirmBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(cs.Delete)).
			Padding(0, 1),
		DetailBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(cs.Accent)).
			Padding(0, 1),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color(cs.InfoFg)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(cs.WarningFg)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(cs.ErrorFg)).Bold(true),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(cs.Accent)),
	}
}
