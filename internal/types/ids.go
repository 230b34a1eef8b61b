package types

import "strconv"

// ID types give board identifiers a name of their own so a column id can
// never be passed where a card id is expected.

// ColumnID identifies a column within a board
type ColumnID int64

// CardID identifies a card. Card ids are unique across the whole board,
// not only within the column that currently owns the card.
type CardID int64

func (id ColumnID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id CardID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ToInt64 converts a column id for database and wire use
func (id ColumnID) ToInt64() int64 {
	return int64(id)
}

// ToInt64 converts a card id for database and wire use
func (id CardID) ToInt64() int64 {
	return int64(id)
}
