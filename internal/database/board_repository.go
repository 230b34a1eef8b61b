package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/types"
)

// BoardRepo applies the three sync operations to the persisted board. Every
// method runs in a single transaction, so a failed operation leaves no trace.
// Positions inside a column are kept contiguous from 0.
type BoardRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewBoardRepo wraps db. A nil logger uses slog.Default.
func NewBoardRepo(db *sql.DB, logger *slog.Logger) *BoardRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoardRepo{db: db, logger: logger}
}

// SeedIfEmpty writes seed when no column exists yet. Reports whether it did.
func (r *BoardRepo) SeedIfEmpty(ctx context.Context, seed models.Board) (bool, error) {
	seeded := false
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM columns").Scan(&count); err != nil {
			return fmt.Errorf("failed to count columns: %w", err)
		}
		if count > 0 {
			return nil
		}

		for colPos, col := range seed.Columns {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO columns (id, title, position) VALUES (?, ?, ?)",
				col.ID, col.Title, colPos,
			); err != nil {
				return fmt.Errorf("failed to seed column %d: %w", col.ID, err)
			}
			for cardPos, card := range col.Cards {
				if err := insertCardRow(ctx, tx, card, col.ID, cardPos); err != nil {
					return err
				}
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}

// LoadBoard reads the whole board in column order.
func (r *BoardRepo) LoadBoard(ctx context.Context) (models.Board, error) {
	var b models.Board

	rows, err := r.db.QueryContext(ctx, "SELECT id, title FROM columns ORDER BY position")
	if err != nil {
		return b, fmt.Errorf("failed to query columns: %w", err)
	}
	index := make(map[types.ColumnID]int)
	for rows.Next() {
		var col models.Column
		if err := rows.Scan(&col.ID, &col.Title); err != nil {
			rows.Close()
			return b, err
		}
		index[col.ID] = len(b.Columns)
		b.Columns = append(b.Columns, col)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return b, err
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx,
		`SELECT cc.column_id, c.id, c.title, c.description
		 FROM column_cards cc
		 JOIN cards c ON c.id = cc.card_id
		 ORDER BY cc.column_id, cc.position`,
	)
	if err != nil {
		return b, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			colID types.ColumnID
			card  models.Card
			desc  sql.NullString
		)
		if err := rows.Scan(&colID, &card.ID, &card.Title, &desc); err != nil {
			return b, err
		}
		card.Description = nullStringToPtr(desc)
		i, ok := index[colID]
		if !ok {
			return b, fmt.Errorf("card %d references %w %d", card.ID, models.ErrUnknownColumn, colID)
		}
		b.Columns[i].Cards = append(b.Columns[i].Cards, card)
	}

	return b, rows.Err()
}

// InsertCard stores card at pos, shifting later cards down.
func (r *BoardRepo) InsertCard(ctx context.Context, card models.Card, pos models.Position) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		n, err := columnSize(ctx, tx, pos.ColumnID)
		if err != nil {
			return err
		}
		if pos.Index < 0 || pos.Index > n {
			return fmt.Errorf("%w: index %d outside [0,%d] in column %d",
				models.ErrInvalidPosition, pos.Index, n, pos.ColumnID)
		}

		var exists int
		err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards WHERE id = ?", card.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check card %d: %w", card.ID, err)
		}
		if exists > 0 {
			return fmt.Errorf("%w: %d", models.ErrDuplicateCard, card.ID)
		}

		if err := shift(ctx, tx, pos.ColumnID, pos.Index, 1, card.ID); err != nil {
			return err
		}
		return insertCardRow(ctx, tx, card, pos.ColumnID, pos.Index)
	})
}

// MoveCard relocates cardID so it ends at to. from must match where the card
// currently is, otherwise ErrPositionMismatch is returned and nothing changes.
func (r *BoardRepo) MoveCard(ctx context.Context, cardID types.CardID, from, to models.Position) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		cur, err := locate(ctx, tx, cardID)
		if err != nil {
			return err
		}
		if cur != from {
			return fmt.Errorf("%w: card %d is at %d/%d, request says %d/%d",
				ErrPositionMismatch, cardID, cur.ColumnID, cur.Index, from.ColumnID, from.Index)
		}

		n, err := columnSize(ctx, tx, to.ColumnID)
		if err != nil {
			return err
		}
		if to.ColumnID == cur.ColumnID {
			n--
		}
		if to.Index < 0 || to.Index > n {
			return fmt.Errorf("%w: index %d outside [0,%d] in column %d",
				models.ErrInvalidPosition, to.Index, n, to.ColumnID)
		}

		if err := shift(ctx, tx, cur.ColumnID, cur.Index+1, -1, cardID); err != nil {
			return err
		}
		if err := shift(ctx, tx, to.ColumnID, to.Index, 1, cardID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE column_cards SET column_id = ?, position = ? WHERE card_id = ?",
			to.ColumnID, to.Index, cardID,
		)
		if err != nil {
			return fmt.Errorf("failed to move card %d: %w", cardID, err)
		}
		_, err = tx.ExecContext(ctx, "UPDATE cards SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", cardID)
		return err
	})
}

// DeleteCard removes cardID and returns where it was. A lastPos that does not
// match is logged but does not block the delete.
func (r *BoardRepo) DeleteCard(ctx context.Context, cardID types.CardID, lastPos models.Position) (models.Position, error) {
	var cur models.Position
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		cur, err = locate(ctx, tx, cardID)
		if err != nil {
			return err
		}
		if cur != lastPos {
			r.logger.Warn("remove position mismatch",
				"card", cardID,
				"stored_column", cur.ColumnID, "stored_index", cur.Index,
				"reported_column", lastPos.ColumnID, "reported_index", lastPos.Index)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM column_cards WHERE card_id = ?", cardID); err != nil {
			return fmt.Errorf("failed to unlink card %d: %w", cardID, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM cards WHERE id = ?", cardID); err != nil {
			return fmt.Errorf("failed to delete card %d: %w", cardID, err)
		}
		return shift(ctx, tx, cur.ColumnID, cur.Index+1, -1, cardID)
	})
	return cur, err
}

// CardCount returns the number of stored cards.
func (r *BoardRepo) CardCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards").Scan(&n)
	return n, err
}

func insertCardRow(ctx context.Context, tx *sql.Tx, card models.Card, columnID types.ColumnID, position int) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO cards (id, title, description) VALUES (?, ?, ?)",
		card.ID, card.Title, ptrToNullString(card.Description),
	); err != nil {
		return fmt.Errorf("failed to insert card %d: %w", card.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO column_cards (card_id, column_id, position) VALUES (?, ?, ?)",
		card.ID, columnID, position,
	); err != nil {
		return fmt.Errorf("failed to place card %d: %w", card.ID, err)
	}
	return nil
}

func locate(ctx context.Context, tx *sql.Tx, cardID types.CardID) (models.Position, error) {
	var pos models.Position
	err := tx.QueryRowContext(ctx,
		"SELECT column_id, position FROM column_cards WHERE card_id = ?", cardID,
	).Scan(&pos.ColumnID, &pos.Index)
	if errors.Is(err, sql.ErrNoRows) {
		return pos, fmt.Errorf("%w: %d", models.ErrUnknownCard, cardID)
	}
	if err != nil {
		return pos, fmt.Errorf("failed to locate card %d: %w", cardID, err)
	}
	return pos, nil
}

// columnSize returns the number of cards in columnID, or ErrUnknownColumn.
func columnSize(ctx context.Context, tx *sql.Tx, columnID types.ColumnID) (int, error) {
	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM columns WHERE id = ?", columnID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check column %d: %w", columnID, err)
	}
	if exists == 0 {
		return 0, fmt.Errorf("%w: %d", models.ErrUnknownColumn, columnID)
	}

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM column_cards WHERE column_id = ?", columnID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cards in column %d: %w", columnID, err)
	}
	return n, nil
}

// shift adds delta to the position of every card in columnID at or after
// from, skipping except.
func shift(ctx context.Context, tx *sql.Tx, columnID types.ColumnID, from, delta int, except types.CardID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE column_cards SET position = position + ?
		 WHERE column_id = ? AND position >= ? AND card_id != ?`,
		delta, columnID, from, except,
	)
	if err != nil {
		return fmt.Errorf("failed to shift column %d: %w", columnID, err)
	}
	return nil
}
