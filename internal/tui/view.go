package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thenoetrevino/kansync/internal/models"
)

// View renders the current state of the application
// This implements the "View" part of the Model-View-Update pattern
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("kansync"))
	b.WriteString("\n\n")

	switch m.mode {
	case modeAdding:
		b.WriteString(m.viewAddForm())
	case modeConfirmDelete:
		b.WriteString(m.viewConfirmDelete())
	case modeDetail:
		b.WriteString(m.viewDetail())
	default:
		b.WriteString(m.viewBoard())
	}

	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) viewBoard() string {
	cols := m.columns()
	if len(cols) == 0 {
		return m.styles.Subtle.Render("No columns on this board.")
	}

	rendered := make([]string, 0, len(cols))
	for i, col := range cols {
		rendered = append(rendered, m.viewColumn(col, i == m.selectedCol))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) viewColumn(col models.Column, active bool) string {
	header := m.styles.ColumnTitle.Render(col.Title) + " " +
		m.styles.Subtle.Render(fmt.Sprintf("(%d)", len(col.Cards)))

	parts := []string{header}
	if len(col.Cards) == 0 {
		parts = append(parts, m.styles.Subtle.Render("empty"))
	}
	for i, card := range col.Cards {
		style := m.styles.Card
		if active && i == m.selectedRow {
			style = m.styles.SelectedCard
		}
		parts = append(parts, style.Render(card.Title))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if active {
		return m.styles.ActiveColumn.Render(body)
	}
	return m.styles.Column.Render(body)
}

func (m Model) viewAddForm() string {
	title := "New card"
	if col, ok := m.currentColumn(); ok {
		title = "New card in " + col.Title
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.ColumnTitle.Render(title),
		"",
		m.titleInput.View(),
		m.descInput.View(),
		"",
		m.styles.Subtle.Render("enter: save  tab: switch field  esc: cancel"),
	)
	return m.styles.InputBox.Render(content)
}

func (m Model) viewConfirmDelete() string {
	card, ok := m.currentCard()
	if !ok {
		return ""
	}
	content := fmt.Sprintf("Delete %q?\n\n%s", card.Title, m.styles.Subtle.Render("[y]es  [n]o"))
	return m.styles.ConfirmBox.Render(content)
}

func (m Model) viewDetail() string {
	card, ok := m.currentCard()
	if !ok {
		return ""
	}
	width := max(m.width-6, columnWidth)

	parts := []string{
		m.styles.ColumnTitle.Render(card.Title),
		m.styles.Subtle.Render(fmt.Sprintf("card #%d", card.ID)),
		"",
	}
	if desc := renderDescription(card.DescriptionOrEmpty(), width); desc != "" {
		parts = append(parts, desc)
	} else {
		parts = append(parts, m.styles.Subtle.Render("No description"))
	}
	return m.styles.DetailBox.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewStatus() string {
	var parts []string
	if m.app.Online() {
		parts = append(parts, m.styles.Info.Render("● online"))
		if n := m.app.InFlight(); n > 0 {
			parts = append(parts, m.styles.Subtle.Render(fmt.Sprintf("%d pending", n)))
		}
	} else {
		parts = append(parts, m.styles.Subtle.Render("○ offline"))
	}
	if m.failures > 0 {
		parts = append(parts, m.styles.Error.Render(fmt.Sprintf("%d not saved", m.failures)))
	}
	if n := m.renderNotice(); n != "" {
		parts = append(parts, n)
	}
	return strings.Join(parts, "  ")
}
