package models

import "errors"

// Board validation errors. They are returned wrapped with detail, so compare
// with errors.Is.
var (
	// ErrUnknownColumn indicates that no column has the requested id
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUnknownCard indicates that no column holds a card with the requested id
	ErrUnknownCard = errors.New("unknown card")

	// ErrInvalidPosition indicates a position outside [0, len(cards)] or in a missing column
	ErrInvalidPosition = errors.New("invalid position")

	// ErrDuplicateColumn indicates a column id that is already on the board
	ErrDuplicateColumn = errors.New("duplicate column id")

	// ErrDuplicateCard indicates a card id that is already on the board
	ErrDuplicateCard = errors.New("duplicate card id")
)
