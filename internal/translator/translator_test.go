package translator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/kansync/internal/board"
	"github.com/thenoetrevino/kansync/internal/client"
	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/protocol"
	"github.com/thenoetrevino/kansync/internal/types"
)

// recordingSender stands in for the transport and records every request
type recordingSender struct {
	sent []protocol.Request
	err  error
}

func (s *recordingSender) Send(req protocol.Request) (uint64, error) {
	if s.err != nil {
		return 0, s.err
	}
	req.Seq = uint64(len(s.sent) + 1)
	s.sent = append(s.sent, req)
	return req.Seq, nil
}

func seedBoard() models.Board {
	return models.Board{Columns: []models.Column{
		{ID: 0, Title: "Backlog", Cards: []models.Card{
			{ID: 0, Title: "Add a kanban board", Description: models.StringPtr("Render it in the terminal.")},
		}},
		{ID: 1, Title: "In Progress"},
	}}
}

func setup(t *testing.T) (*Translator, *board.Store, *recordingSender) {
	t.Helper()

	store, err := board.NewStore(seedBoard())
	require.NoError(t, err)

	sender := &recordingSender{}
	tr := New(store, board.NewMonotonicIDs(store.MaxCardID()), sender, nil)
	return tr, store, sender
}

func columnCardIDs(store *board.Store, id types.ColumnID) []types.CardID {
	col, _ := store.Board().Column(id)
	var ids []types.CardID
	for _, c := range col.Cards {
		ids = append(ids, c.ID)
	}
	return ids
}

// ============================================================================
// CARD CREATED
// ============================================================================

func TestCardCreated_PrependsAndEmitsAddCard(t *testing.T) {
	tr, store, sender := setup(t)

	res, err := tr.Dispatch(CardCreated{ColumnID: 0, Draft: models.CardDraft{Title: "X"}})
	require.NoError(t, err)

	ids := columnCardIDs(store, 0)
	require.Len(t, ids, 2)
	assert.NotEqual(t, types.CardID(0), ids[0], "new card must get a fresh id")
	assert.Equal(t, types.CardID(0), ids[1], "seed card shifts right")

	require.Len(t, sender.sent, 1, "exactly one AddCard message")
	msg := sender.sent[0]
	assert.Equal(t, protocol.OpAddCard, msg.Op)
	assert.Equal(t, models.Position{ColumnID: 0, Index: 0}, msg.AddCard.Pos)
	assert.Equal(t, ids[0], msg.AddCard.Card.ID)
	assert.Equal(t, "X", msg.AddCard.Card.Title)
	assert.Nil(t, msg.AddCard.Card.Description)
	assert.Equal(t, uint64(1), res.Seq)
}

func TestCardCreated_ThenRemoveSeedCard(t *testing.T) {
	tr, store, sender := setup(t)

	_, err := tr.Dispatch(CardCreated{ColumnID: 0, Draft: models.CardDraft{Title: "X"}})
	require.NoError(t, err)
	newID := columnCardIDs(store, 0)[0]

	_, err = tr.Dispatch(CardRemoved{CardID: 0})
	require.NoError(t, err)
	assert.Equal(t, []types.CardID{newID}, columnCardIDs(store, 0))

	last := sender.sent[len(sender.sent)-1]
	assert.Equal(t, protocol.OpRemoveCard, last.Op)
	assert.Equal(t, models.Position{ColumnID: 0, Index: 1}, last.RemoveCard.LastPos)

	_, err = tr.Dispatch(CardRemoved{CardID: 0})
	assert.True(t, errors.Is(err, models.ErrUnknownCard), "second removal: %v", err)
	assert.Len(t, sender.sent, 2, "failed removal must not emit")
}

func TestCardCreated_Validation(t *testing.T) {
	tests := []struct {
		name    string
		event   CardCreated
		wantErr error
	}{
		{"blank title", CardCreated{ColumnID: 0, Draft: models.CardDraft{Title: "   "}}, ErrEmptyTitle},
		{"unknown column", CardCreated{ColumnID: 9, Draft: models.CardDraft{Title: "X"}}, models.ErrUnknownColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, store, sender := setup(t)
			before := store.Board()

			_, err := tr.Dispatch(tt.event)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, before, store.Board())
			assert.Empty(t, sender.sent)
		})
	}
}

func TestCardCreated_KeepsDescription(t *testing.T) {
	tr, _, sender := setup(t)

	_, err := tr.Dispatch(CardCreated{ColumnID: 1, Draft: models.CardDraft{Title: " Y ", Description: models.StringPtr("details")}})
	require.NoError(t, err)

	card := sender.sent[0].AddCard.Card
	assert.Equal(t, "Y", card.Title)
	require.NotNil(t, card.Description)
	assert.Equal(t, "details", *card.Description)
}

// ============================================================================
// CARD MOVED
// ============================================================================

func TestCardMoved_EmitsPreAndPostPositions(t *testing.T) {
	tr, store, sender := setup(t)
	total := store.CardCount()

	_, err := tr.Dispatch(CardMoved{
		CardID: 0,
		MoveDescriptor: models.MoveDescriptor{
			From: models.Position{ColumnID: 0, Index: 0},
			To:   models.Position{ColumnID: 1, Index: 0},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, total, store.CardCount())
	assert.Empty(t, columnCardIDs(store, 0))
	assert.Equal(t, []types.CardID{0}, columnCardIDs(store, 1))

	msg := sender.sent[0]
	assert.Equal(t, protocol.OpMoveCard, msg.Op)
	assert.Equal(t, types.CardID(0), msg.MoveCard.CardID)
	assert.Equal(t, models.Position{ColumnID: 0, Index: 0}, msg.MoveCard.From)
	assert.Equal(t, models.Position{ColumnID: 1, Index: 0}, msg.MoveCard.To)
}

func TestCardMoved_SameColumnReportsResolvedSlot(t *testing.T) {
	store, err := board.NewStore(models.Board{Columns: []models.Column{
		{ID: 0, Cards: []models.Card{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}}},
	}})
	require.NoError(t, err)
	sender := &recordingSender{}
	tr := New(store, board.NewMonotonicIDs(store.MaxCardID()), sender, nil)

	_, err = tr.Dispatch(CardMoved{CardID: 1, MoveDescriptor: models.MoveDescriptor{To: models.Position{ColumnID: 0, Index: 2}}})
	require.NoError(t, err)

	assert.Equal(t, []types.CardID{2, 1, 3}, columnCardIDs(store, 0))
	msg := sender.sent[0].MoveCard
	assert.Equal(t, models.Position{ColumnID: 0, Index: 0}, msg.From)
	assert.Equal(t, models.Position{ColumnID: 0, Index: 1}, msg.To)
}

func TestCardMoved_InvalidTargetDoesNotEmit(t *testing.T) {
	tr, store, sender := setup(t)
	before := store.Board()

	_, err := tr.Dispatch(CardMoved{CardID: 0, MoveDescriptor: models.MoveDescriptor{To: models.Position{ColumnID: 1, Index: 1}}})
	assert.True(t, errors.Is(err, models.ErrInvalidPosition), "got %v", err)

	_, err = tr.Dispatch(CardMoved{CardID: 55, MoveDescriptor: models.MoveDescriptor{To: models.Position{ColumnID: 1, Index: 0}}})
	assert.True(t, errors.Is(err, models.ErrUnknownCard), "got %v", err)

	assert.Equal(t, before, store.Board())
	assert.Empty(t, sender.sent)
}

// ============================================================================
// TRANSPORT INTERACTION
// ============================================================================

func TestDispatch_SendFailureKeepsLocalMutation(t *testing.T) {
	tr, store, sender := setup(t)
	sender.err = &client.TransportError{Code: client.CodeQueueFull, Message: "send queue full"}

	res, err := tr.Dispatch(CardRemoved{CardID: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrTransportFailure))
	assert.Equal(t, protocol.OpRemoveCard, res.Request.Op)

	_, lookupErr := store.Locate(0)
	assert.True(t, errors.Is(lookupErr, models.ErrUnknownCard), "local removal must stay applied")
}

func TestDispatch_OfflineBuildsRequest(t *testing.T) {
	store, err := board.NewStore(seedBoard())
	require.NoError(t, err)
	tr := New(store, board.NewMonotonicIDs(store.MaxCardID()), nil, nil)

	res, err := tr.Dispatch(CardRemoved{CardID: 0})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.Seq)
	assert.Equal(t, protocol.OpRemoveCard, res.Request.Op)
}

type bogusEvent struct{ CardRemoved }

func TestDispatch_UnknownEvent(t *testing.T) {
	tr, _, sender := setup(t)

	_, err := tr.Dispatch(bogusEvent{})
	assert.True(t, errors.Is(err, ErrUnknownEvent), "got %v", err)
	assert.Empty(t, sender.sent)
}
