// Package translator turns UI interaction events into local board mutations
// and outbound host requests.
//
// The local store is updated first so the board redraws without waiting for
// the host. A request is only emitted when the local mutation succeeded.
package translator

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thenoetrevino/kansync/internal/board"
	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/protocol"
)

// ErrEmptyTitle is returned for a new-card draft without a title
var ErrEmptyTitle = errors.New("card title is required")

// ErrUnknownEvent is returned for an Event the translator does not handle
var ErrUnknownEvent = errors.New("unknown event")

// newCardIndex is where created cards go: new cards are always prepended
const newCardIndex = 0

// Sender is the part of the transport the translator needs
type Sender interface {
	Send(req protocol.Request) (uint64, error)
}

// Result is what Dispatch did for one event
type Result struct {
	Request protocol.Request
	Seq     uint64
}

// Translator maps events to store mutations and host requests
type Translator struct {
	store  *board.Store
	ids    board.IDGenerator
	sender Sender
	logger *slog.Logger
}

// New creates a translator. sender may be nil, in which case requests are
// built but not delivered (offline mode).
func New(store *board.Store, ids board.IDGenerator, sender Sender, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{store: store, ids: ids, sender: sender, logger: logger}
}

// Dispatch applies ev to the store and emits the matching request.
//
// Validation errors leave the store untouched and emit nothing. A send error
// is returned after the local mutation has been applied; the mutation is not
// rolled back.
func (t *Translator) Dispatch(ev Event) (Result, error) {
	var (
		req protocol.Request
		err error
	)

	switch e := ev.(type) {
	case CardCreated:
		req, err = t.cardCreated(e)
	case CardMoved:
		req, err = t.cardMoved(e)
	case CardRemoved:
		req, err = t.cardRemoved(e)
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
	if err != nil {
		return Result{}, err
	}

	return t.emit(req)
}

func (t *Translator) cardCreated(e CardCreated) (protocol.Request, error) {
	title := strings.TrimSpace(e.Draft.Title)
	if title == "" {
		return protocol.Request{}, ErrEmptyTitle
	}

	card := models.Card{
		ID:          t.ids.NextCardID(),
		Title:       title,
		Description: e.Draft.Description,
	}
	if card.Description != nil && strings.TrimSpace(*card.Description) == "" {
		card.Description = nil
	}

	if err := t.store.AddCard(e.ColumnID, card, newCardIndex); err != nil {
		return protocol.Request{}, fmt.Errorf("add card: %w", err)
	}

	pos := models.Position{ColumnID: e.ColumnID, Index: newCardIndex}
	return protocol.NewAddCard(card.Clone(), pos), nil
}

func (t *Translator) cardMoved(e CardMoved) (protocol.Request, error) {
	from, err := t.store.Locate(e.CardID)
	if err != nil {
		return protocol.Request{}, fmt.Errorf("move card: %w", err)
	}
	if from != e.From {
		t.logger.Debug("move event origin differs from store",
			"card_id", e.CardID, "event_from", e.From, "store_from", from)
	}

	to, err := t.store.MoveCard(e.CardID, e.To)
	if err != nil {
		return protocol.Request{}, fmt.Errorf("move card: %w", err)
	}

	return protocol.NewMoveCard(e.CardID, from, to), nil
}

func (t *Translator) cardRemoved(e CardRemoved) (protocol.Request, error) {
	lastPos, err := t.store.RemoveCard(e.CardID)
	if err != nil {
		return protocol.Request{}, fmt.Errorf("remove card: %w", err)
	}
	return protocol.NewRemoveCard(e.CardID, lastPos), nil
}

func (t *Translator) emit(req protocol.Request) (Result, error) {
	if t.sender == nil {
		t.logger.Debug("no host connection, request not sent", "op", req.Op, "card_id", req.CardID())
		return Result{Request: req}, nil
	}

	seq, err := t.sender.Send(req)
	if err != nil {
		t.logger.Warn("failed to queue request for host", "op", req.Op, "card_id", req.CardID(), "error", err)
		return Result{Request: req}, fmt.Errorf("send %s: %w", req.Op, err)
	}

	req.Seq = seq
	t.logger.Debug("request queued", "seq", seq, "op", req.Op, "card_id", req.CardID())
	return Result{Request: req, Seq: seq}, nil
}
