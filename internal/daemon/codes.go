package daemon

import (
	"errors"

	"github.com/thenoetrevino/kansync/internal/database"
	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/protocol"
)

// Reject codes carried in Response.Code
const (
	CodeUnknownCard      = "unknown_card"
	CodeUnknownColumn    = "unknown_column"
	CodeInvalidPosition  = "invalid_position"
	CodePositionMismatch = "position_mismatch"
	CodeDuplicateCard    = "duplicate_card"
	CodeBadRequest       = "bad_request"
	CodeInternal         = "internal"
)

// CodeFor maps a store or validation error to its reject code
func CodeFor(err error) string {
	switch {
	case errors.Is(err, models.ErrUnknownCard):
		return CodeUnknownCard
	case errors.Is(err, models.ErrUnknownColumn):
		return CodeUnknownColumn
	case errors.Is(err, models.ErrInvalidPosition):
		return CodeInvalidPosition
	case errors.Is(err, database.ErrPositionMismatch):
		return CodePositionMismatch
	case errors.Is(err, models.ErrDuplicateCard):
		return CodeDuplicateCard
	case errors.Is(err, protocol.ErrMalformedRequest):
		return CodeBadRequest
	default:
		return CodeInternal
	}
}
