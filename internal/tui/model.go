// Package tui is the terminal board. Its Update loop is the only code that
// touches the board store; every user action goes through the app's
// translator, and host outcomes come back as messages.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thenoetrevino/kansync/internal/app"
	"github.com/thenoetrevino/kansync/internal/client"
	"github.com/thenoetrevino/kansync/internal/config"
	"github.com/thenoetrevino/kansync/internal/models"
)

type mode int

const (
	modeNormal mode = iota
	modeAdding
	modeConfirmDelete
	modeDetail
)

// outcomeMsg carries one terminal transport outcome into the event loop
type outcomeMsg client.Outcome

// outcomesClosedMsg means the transport shut down
type outcomesClosedMsg struct{}

// Model represents the application state for the TUI
type Model struct {
	app    *app.App
	keys   KeyMap
	styles Styles
	help   help.Model

	mode        mode
	selectedCol int
	selectedRow int

	titleInput textinput.Model
	descInput  textinput.Model

	notice    *notice
	noticeSeq int
	failures  int

	width  int
	height int
}

// New creates the board model for a.
func New(a *app.App, cfg *config.Config) Model {
	title := textinput.New()
	title.Placeholder = "Card title"
	title.CharLimit = 200
	title.Width = cardWidth

	desc := textinput.New()
	desc.Placeholder = "Description (optional, markdown)"
	desc.CharLimit = 2000
	desc.Width = cardWidth

	return Model{
		app:        a,
		keys:       NewKeyMap(cfg.KeyMappings),
		styles:     NewStyles(cfg.ColorScheme),
		help:       help.New(),
		titleInput: title,
		descInput:  desc,
	}
}

// Init starts listening for transport outcomes
// Required by tea.Model interface
func (m Model) Init() tea.Cmd {
	return waitForOutcome(m.app.Outcomes())
}

// waitForOutcome returns a command that blocks until the next outcome.
// Returns nil when running offline.
func waitForOutcome(ch <-chan client.Outcome) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		out, ok := <-ch
		if !ok {
			return outcomesClosedMsg{}
		}
		return outcomeMsg(out)
	}
}

// columns returns a snapshot of the board columns
func (m Model) columns() []models.Column {
	return m.app.Store.Columns()
}

// currentColumn returns the selected column, or false when the board is empty
func (m Model) currentColumn() (models.Column, bool) {
	cols := m.columns()
	if m.selectedCol < 0 || m.selectedCol >= len(cols) {
		return models.Column{}, false
	}
	return cols[m.selectedCol], true
}

// currentCard returns the selected card, or false when the column is empty
func (m Model) currentCard() (models.Card, bool) {
	col, ok := m.currentColumn()
	if !ok || m.selectedRow < 0 || m.selectedRow >= len(col.Cards) {
		return models.Card{}, false
	}
	return col.Cards[m.selectedRow], true
}

// clampSelection keeps the cursor on an existing card slot
func (m *Model) clampSelection() {
	cols := m.columns()
	if len(cols) == 0 {
		m.selectedCol, m.selectedRow = 0, 0
		return
	}
	m.selectedCol = min(max(m.selectedCol, 0), len(cols)-1)
	n := len(cols[m.selectedCol].Cards)
	m.selectedRow = min(max(m.selectedRow, 0), max(n-1, 0))
}
