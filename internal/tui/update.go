package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thenoetrevino/kansync/internal/client"
	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/translator"
	"github.com/thenoetrevino/kansync/internal/types"
)

// Update handles all messages and updates the model accordingly
// This implements the "Update" part of the Model-View-Update pattern
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case outcomeMsg:
		return m.handleOutcome(client.Outcome(msg))

	case outcomesClosedMsg:
		return m, nil

	case clearNoticeMsg:
		if m.notice != nil && m.notice.id == msg.id {
			m.notice = nil
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAdding:
			return m.updateAdding(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case modeDetail:
			return m.updateDetail(msg)
		default:
			return m.updateNormal(msg)
		}
	}

	return m, nil
}

func (m Model) handleOutcome(out client.Outcome) (tea.Model, tea.Cmd) {
	next := waitForOutcome(m.app.Outcomes())
	if out.State != client.Failed {
		return m, next
	}
	// the local board keeps the change; the host copy may now differ
	m.failures++
	notice := m.notify(Error, "%s", describeFailure(out))
	return m, tea.Batch(next, notice)
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.PrevColumn):
		m.selectedCol--
		m.clampSelection()
	case key.Matches(msg, m.keys.NextColumn):
		m.selectedCol++
		m.clampSelection()
	case key.Matches(msg, m.keys.PrevCard):
		m.selectedRow--
		m.clampSelection()
	case key.Matches(msg, m.keys.NextCard):
		m.selectedRow++
		m.clampSelection()

	case key.Matches(msg, m.keys.AddCard):
		if _, ok := m.currentColumn(); !ok {
			return m, nil
		}
		m.mode = modeAdding
		m.titleInput.Reset()
		m.descInput.Reset()
		m.descInput.Blur()
		cmd := m.titleInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.DeleteCard):
		if _, ok := m.currentCard(); ok {
			m.mode = modeConfirmDelete
		}

	case key.Matches(msg, m.keys.ViewCard):
		if _, ok := m.currentCard(); ok {
			m.mode = modeDetail
		}

	case key.Matches(msg, m.keys.MoveUp):
		return m.moveWithinColumn(-1)
	case key.Matches(msg, m.keys.MoveDown):
		return m.moveWithinColumn(+1)
	case key.Matches(msg, m.keys.MoveLeft):
		return m.moveToColumn(-1)
	case key.Matches(msg, m.keys.MoveRight):
		return m.moveToColumn(+1)
	}

	return m, nil
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.titleInput.Blur()
		m.descInput.Blur()
		return m, nil

	case tea.KeyTab, tea.KeyShiftTab:
		if m.titleInput.Focused() {
			m.titleInput.Blur()
			cmd := m.descInput.Focus()
			return m, cmd
		}
		m.descInput.Blur()
		cmd := m.titleInput.Focus()
		return m, cmd

	case tea.KeyEnter:
		return m.submitDraft()
	}

	var cmd tea.Cmd
	if m.titleInput.Focused() {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.descInput, cmd = m.descInput.Update(msg)
	}
	return m, cmd
}

func (m Model) submitDraft() (tea.Model, tea.Cmd) {
	col, ok := m.currentColumn()
	if !ok {
		m.mode = modeNormal
		return m, nil
	}

	draft := models.CardDraft{Title: m.titleInput.Value()}
	if d := strings.TrimSpace(m.descInput.Value()); d != "" {
		draft.Description = models.StringPtr(d)
	}

	cmd, err := m.dispatch(translator.CardCreated{ColumnID: col.ID, Draft: draft})
	if errors.Is(err, translator.ErrEmptyTitle) {
		// stay in the form so the user can type a title
		return m, cmd
	}

	m.mode = modeNormal
	m.titleInput.Blur()
	m.descInput.Blur()
	// new cards are prepended
	m.selectedRow = 0
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.mode = modeNormal
		card, ok := m.currentCard()
		if !ok {
			return m, nil
		}
		cmd, _ := m.dispatch(translator.CardRemoved{CardID: card.ID})
		m.clampSelection()
		return m, cmd
	case "n", "N", "esc", "q":
		m.mode = modeNormal
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ViewCard) || msg.Type == tea.KeyEsc || key.Matches(msg, m.keys.Quit) {
		m.mode = modeNormal
	}
	return m, nil
}

// moveWithinColumn moves the selected card one slot up (-1) or down (+1)
func (m Model) moveWithinColumn(delta int) (tea.Model, tea.Cmd) {
	col, ok := m.currentColumn()
	card, hasCard := m.currentCard()
	if !ok || !hasCard {
		return m, nil
	}

	target := m.selectedRow + delta
	if target < 0 || target >= len(col.Cards) {
		return m, nil
	}

	// drop slots count the card itself, so moving down skips one extra slot
	slot := target
	if delta > 0 {
		slot = target + 1
	}

	from := models.Position{ColumnID: col.ID, Index: m.selectedRow}
	cmd, _ := m.dispatch(translator.CardMoved{CardID: card.ID, MoveDescriptor: models.MoveDescriptor{From: from, To: models.Position{ColumnID: col.ID, Index: slot}}})
	m.follow(card.ID)
	return m, cmd
}

// moveToColumn moves the selected card to the neighbouring column, keeping its row when possible
func (m Model) moveToColumn(delta int) (tea.Model, tea.Cmd) {
	cols := m.columns()
	card, ok := m.currentCard()
	targetCol := m.selectedCol + delta
	if !ok || targetCol < 0 || targetCol >= len(cols) {
		return m, nil
	}

	dest := cols[targetCol]
	from := models.Position{ColumnID: cols[m.selectedCol].ID, Index: m.selectedRow}
	to := models.Position{ColumnID: dest.ID, Index: min(m.selectedRow, len(dest.Cards))}

	cmd, _ := m.dispatch(translator.CardMoved{CardID: card.ID, MoveDescriptor: models.MoveDescriptor{From: from, To: to}})
	m.follow(card.ID)
	return m, cmd
}

// follow moves the cursor to wherever id now is
func (m *Model) follow(id types.CardID) {
	pos, err := m.app.Store.Locate(id)
	if err != nil {
		m.clampSelection()
		return
	}
	for i, col := range m.columns() {
		if col.ID == pos.ColumnID {
			m.selectedCol = i
			m.selectedRow = pos.Index
			return
		}
	}
}

// dispatch hands ev to the translator and turns failures into a notice.
// A transport failure still leaves the change on the local board.
func (m *Model) dispatch(ev translator.Event) (tea.Cmd, error) {
	_, err := m.app.Dispatch(ev)
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, client.ErrTransportFailure):
		return m.notify(Warning, "saved locally, host not updated: %v", err), err
	default:
		return m.notify(Error, "%v", err), err
	}
}
