package models

import "github.com/thenoetrevino/kansync/internal/types"

// Column represents a kanban board column (e.g., "Backlog", "In Progress").
// Cards are held by value in display order; a card belongs to exactly one
// column at a time.
type Column struct {
	ID    types.ColumnID `json:"id" yaml:"id"`
	Title string         `json:"title" yaml:"title"`
	Cards []Card         `json:"cards" yaml:"cards"`
}

// IndexOf returns the slot of the card with the given id, or -1
func (c Column) IndexOf(id types.CardID) int {
	for i, card := range c.Cards {
		if card.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the column
func (c Column) Clone() Column {
	out := Column{ID: c.ID, Title: c.Title, Cards: make([]Card, len(c.Cards))}
	for i, card := range c.Cards {
		out.Cards[i] = card.Clone()
	}
	return out
}
