package board

import (
	"fmt"

	"github.com/thenoetrevino/kansync/internal/models"
)

// ValidatePosition checks that pos names an existing column and that its
// index lies within [0, len(cards)] for that column.
func ValidatePosition(b models.Board, pos models.Position) error {
	col, ok := b.Column(pos.ColumnID)
	if !ok {
		return fmt.Errorf("%w: column %d does not exist", models.ErrInvalidPosition, pos.ColumnID)
	}
	return checkIndex(pos.Index, len(col.Cards))
}

// checkIndex validates an insertion index against a sequence of length n
func checkIndex(index, n int) error {
	if index < 0 || index > n {
		return fmt.Errorf("%w: index %d outside [0, %d]", models.ErrInvalidPosition, index, n)
	}
	return nil
}
