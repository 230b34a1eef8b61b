package models

import "github.com/thenoetrevino/kansync/internal/types"

// Board is the top-level ordered collection of columns
type Board struct {
	Columns []Column `json:"columns" yaml:"columns"`
}

// Position addresses a slot within a column's card sequence.
// Index is zero-based and names the insertion point.
type Position struct {
	ColumnID types.ColumnID `json:"columnId"`
	Index    int            `json:"index"`
}

// MoveDescriptor describes a card move. From is informational, To is
// authoritative.
type MoveDescriptor struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	out := Board{Columns: make([]Column, len(b.Columns))}
	for i, col := range b.Columns {
		out.Columns[i] = col.Clone()
	}
	return out
}

// Column returns the column with the given id
func (b Board) Column(id types.ColumnID) (Column, bool) {
	for _, col := range b.Columns {
		if col.ID == id {
			return col, true
		}
	}
	return Column{}, false
}

// CardCount returns the number of cards across all columns
func (b Board) CardCount() int {
	n := 0
	for _, col := range b.Columns {
		n += len(col.Cards)
	}
	return n
}

// MaxCardID returns the highest card id on the board, or -1 for an empty board
func (b Board) MaxCardID() types.CardID {
	highest := types.CardID(-1)
	for _, col := range b.Columns {
		for _, card := range col.Cards {
			if card.ID > highest {
				highest = card.ID
			}
		}
	}
	return highest
}
