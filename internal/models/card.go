package models

import "github.com/thenoetrevino/kansync/internal/types"

// Card is the atomic unit of work on the board.
// Two cards are the same card when their ids match; title and description
// play no part in identity.
type Card struct {
	ID          types.CardID `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description *string      `json:"description,omitempty" yaml:"description,omitempty"`
}

// CardDraft is a user-confirmed new card that has not been assigned an id yet
type CardDraft struct {
	Title       string
	Description *string
}

// DescriptionOrEmpty returns the description, or "" when none is set
func (c Card) DescriptionOrEmpty() string {
	if c.Description == nil {
		return ""
	}
	return *c.Description
}

// Clone returns a copy that shares no memory with c
func (c Card) Clone() Card {
	out := c
	if c.Description != nil {
		d := *c.Description
		out.Description = &d
	}
	return out
}

// StringPtr is a convenience for optional string fields
func StringPtr(s string) *string {
	return &s
}
