// Package board holds the UI's in-memory copy of the kanban board.
//
// The Store has a single writer (the UI event loop) and takes no locks.
// Every mutation validates its preconditions before touching state, so a
// failed call leaves the board exactly as it was.
package board

import (
	"fmt"
	"slices"

	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/types"
)

// Store is the authoritative-for-the-UI board
type Store struct {
	columns []models.Column
}

// NewStore creates a store from a seed board. The seed is copied; later
// changes to it do not reach the store.
func NewStore(seed models.Board) (*Store, error) {
	if err := checkUnique(seed); err != nil {
		return nil, err
	}
	return &Store{columns: seed.Clone().Columns}, nil
}

// checkUnique rejects duplicate column ids and duplicate card ids anywhere on the board
func checkUnique(b models.Board) error {
	columnIDs := make(map[types.ColumnID]bool, len(b.Columns))
	cardIDs := make(map[types.CardID]bool)
	for _, col := range b.Columns {
		if columnIDs[col.ID] {
			return fmt.Errorf("%w: %d", models.ErrDuplicateColumn, col.ID)
		}
		columnIDs[col.ID] = true
		for _, card := range col.Cards {
			if cardIDs[card.ID] {
				return fmt.Errorf("%w: %d", models.ErrDuplicateCard, card.ID)
			}
			cardIDs[card.ID] = true
		}
	}
	return nil
}

// Board returns a deep copy of the current board
func (s *Store) Board() models.Board {
	return models.Board{Columns: s.columns}.Clone()
}

// Columns returns a deep copy of the columns in display order
func (s *Store) Columns() []models.Column {
	return s.Board().Columns
}

// CardCount returns the number of cards on the board
func (s *Store) CardCount() int {
	return models.Board{Columns: s.columns}.CardCount()
}

// MaxCardID returns the highest card id on the board, or -1 when empty
func (s *Store) MaxCardID() types.CardID {
	return models.Board{Columns: s.columns}.MaxCardID()
}

func (s *Store) columnIndex(id types.ColumnID) int {
	for i := range s.columns {
		if s.columns[i].ID == id {
			return i
		}
	}
	return -1
}

// find returns the column slot and card slot holding the card
func (s *Store) find(id types.CardID) (int, int, bool) {
	for ci := range s.columns {
		if idx := s.columns[ci].IndexOf(id); idx >= 0 {
			return ci, idx, true
		}
	}
	return -1, -1, false
}

// view wraps the live columns without copying them
func (s *Store) view() models.Board {
	return models.Board{Columns: s.columns}
}

// Locate returns the current position of a card
func (s *Store) Locate(id types.CardID) (models.Position, error) {
	ci, idx, ok := s.find(id)
	if !ok {
		return models.Position{}, fmt.Errorf("%w: %d", models.ErrUnknownCard, id)
	}
	return models.Position{ColumnID: s.columns[ci].ID, Index: idx}, nil
}

// Card returns a copy of the card with the given id
func (s *Store) Card(id types.CardID) (models.Card, error) {
	ci, idx, ok := s.find(id)
	if !ok {
		return models.Card{}, fmt.Errorf("%w: %d", models.ErrUnknownCard, id)
	}
	return s.columns[ci].Cards[idx].Clone(), nil
}

// AddCard inserts card into the column at index, shifting later cards right
func (s *Store) AddCard(columnID types.ColumnID, card models.Card, index int) error {
	ci := s.columnIndex(columnID)
	if ci < 0 {
		return fmt.Errorf("%w: %d", models.ErrUnknownColumn, columnID)
	}
	if err := ValidatePosition(s.view(), models.Position{ColumnID: columnID, Index: index}); err != nil {
		return err
	}
	if _, _, exists := s.find(card.ID); exists {
		return fmt.Errorf("%w: %d", models.ErrDuplicateCard, card.ID)
	}

	s.columns[ci].Cards = slices.Insert(s.columns[ci].Cards, index, card.Clone())
	return nil
}

// MoveCard transfers a card to the slot named by to and returns the position
// the card ends up at.
//
// to.Index is a drop slot on the board as it looks before the move, so it may
// range over [0, len(target)] inclusive. The card is removed first; when it
// moves further down its own column the slot is shifted by one to account
// for the removal. Moving A to slot 2 in [A,B,C] gives [B,A,C].
func (s *Store) MoveCard(id types.CardID, to models.Position) (models.Position, error) {
	srcCol, srcIdx, ok := s.find(id)
	if !ok {
		return models.Position{}, fmt.Errorf("%w: %d", models.ErrUnknownCard, id)
	}
	dstCol := s.columnIndex(to.ColumnID)
	if dstCol < 0 {
		return models.Position{}, fmt.Errorf("%w: %d", models.ErrUnknownColumn, to.ColumnID)
	}
	if err := ValidatePosition(s.view(), to); err != nil {
		return models.Position{}, err
	}

	insertAt := to.Index
	if srcCol == dstCol && to.Index > srcIdx {
		insertAt--
	}

	card := s.columns[srcCol].Cards[srcIdx]
	s.columns[srcCol].Cards = slices.Delete(s.columns[srcCol].Cards, srcIdx, srcIdx+1)
	s.columns[dstCol].Cards = slices.Insert(s.columns[dstCol].Cards, insertAt, card)

	return models.Position{ColumnID: to.ColumnID, Index: insertAt}, nil
}

// RemoveCard deletes a card and returns the position it was removed from.
// Removing the same id twice fails the second time.
func (s *Store) RemoveCard(id types.CardID) (models.Position, error) {
	ci, idx, ok := s.find(id)
	if !ok {
		return models.Position{}, fmt.Errorf("%w: %d", models.ErrUnknownCard, id)
	}
	s.columns[ci].Cards = slices.Delete(s.columns[ci].Cards, idx, idx+1)
	return models.Position{ColumnID: s.columns[ci].ID, Index: idx}, nil
}

// UpdateCard edits a card in place. Its id and position do not change.
func (s *Store) UpdateCard(id types.CardID, title string, description *string) error {
	ci, idx, ok := s.find(id)
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrUnknownCard, id)
	}
	card := &s.columns[ci].Cards[idx]
	card.Title = title
	card.Description = models.Card{Description: description}.Clone().Description
	return nil
}

// AddColumn inserts an empty or pre-filled column at index in the column order
func (s *Store) AddColumn(col models.Column, index int) error {
	if index < 0 || index > len(s.columns) {
		return fmt.Errorf("%w: column index %d outside [0, %d]", models.ErrInvalidPosition, index, len(s.columns))
	}
	next := models.Board{Columns: slices.Insert(slices.Clone(s.columns), index, col)}
	if err := checkUnique(next); err != nil {
		return err
	}
	s.columns = slices.Insert(s.columns, index, col.Clone())
	return nil
}

// RemoveColumn deletes a column together with the cards it owns
func (s *Store) RemoveColumn(id types.ColumnID) error {
	ci := s.columnIndex(id)
	if ci < 0 {
		return fmt.Errorf("%w: %d", models.ErrUnknownColumn, id)
	}
	s.columns = slices.Delete(s.columns, ci, ci+1)
	return nil
}
