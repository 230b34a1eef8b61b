package translator

import (
	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/types"
)

// Event is an interaction reported by the rendering layer. The set is
// closed: only the types in this file implement it.
type Event interface {
	isEvent()
}

// CardCreated reports a confirmed new-card draft for a column
type CardCreated struct {
	ColumnID types.ColumnID
	Draft    models.CardDraft
}

// CardMoved reports a drag that ended. To.Index is the drop slot as the
// user saw the board before the move.
type CardMoved struct {
	CardID types.CardID
	models.MoveDescriptor
}

// CardRemoved reports a deleted card
type CardRemoved struct {
	CardID types.CardID
}

func (CardCreated) isEvent() {}
func (CardMoved) isEvent()   {}
func (CardRemoved) isEvent() {}
