package database

import "errors"

// ErrPositionMismatch means a move named a source position the card is not at.
var ErrPositionMismatch = errors.New("position mismatch")
