// Package protocol defines the messages exchanged between the board UI and
// the host daemon. Frames are newline-delimited JSON over a Unix domain socket.
package protocol

import (
	"errors"
	"fmt"

	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/types"
)

// ProtocolVersion is bumped whenever the envelope shape changes
const ProtocolVersion = 1

// Operation names a board mutation the host applies
type Operation string

const (
	OpAddCard    Operation = "AddCard"
	OpMoveCard   Operation = "MoveCard"
	OpRemoveCard Operation = "RemoveCard"
)

// Frame types
const (
	TypeHello   = "hello"
	TypeRequest = "request"
	TypeAck     = "ack"
	TypeReject  = "reject"
	TypePing    = "ping"
	TypePong    = "pong"
)

// AddCardPayload asks the host to insert card at pos
type AddCardPayload struct {
	Card models.Card     `json:"card"`
	Pos  models.Position `json:"pos"`
}

// MoveCardPayload asks the host to relocate a card. From lets the host check
// that it agrees on where the card was; To is where the card now is.
type MoveCardPayload struct {
	CardID types.CardID `json:"cardId"`
	models.MoveDescriptor
}

// RemoveCardPayload asks the host to delete a card. LastPos is kept for audit.
type RemoveCardPayload struct {
	CardID  types.CardID    `json:"cardId"`
	LastPos models.Position `json:"lastPos"`
}

// HelloMessage opens a session
type HelloMessage struct {
	SessionID string `json:"sessionId"`
	User      string `json:"user,omitempty"`
}

// Request wraps one operation, or a control frame, sent by the UI
type Request struct {
	Version    int                `json:"version"`
	Type       string             `json:"type"`
	Seq        uint64             `json:"seq,omitempty"`
	Op         Operation          `json:"op,omitempty"`
	AddCard    *AddCardPayload    `json:"addCard,omitempty"`
	MoveCard   *MoveCardPayload   `json:"moveCard,omitempty"`
	RemoveCard *RemoveCardPayload `json:"removeCard,omitempty"`
	Hello      *HelloMessage      `json:"hello,omitempty"`
}

// Response is sent by the host: ack/reject for a request, or ping
type Response struct {
	Version int    `json:"version"`
	Type    string `json:"type"`
	Seq     uint64 `json:"seq,omitempty"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrMalformedRequest is returned by Validate
var ErrMalformedRequest = errors.New("malformed request")

// NewAddCard builds an AddCard request
func NewAddCard(card models.Card, pos models.Position) Request {
	return Request{
		Version: ProtocolVersion,
		Type:    TypeRequest,
		Op:      OpAddCard,
		AddCard: &AddCardPayload{Card: card, Pos: pos},
	}
}

// NewMoveCard builds a MoveCard request
func NewMoveCard(id types.CardID, from, to models.Position) Request {
	return Request{
		Version:  ProtocolVersion,
		Type:     TypeRequest,
		Op:       OpMoveCard,
		MoveCard: &MoveCardPayload{CardID: id, MoveDescriptor: models.MoveDescriptor{From: from, To: to}},
	}
}

// NewRemoveCard builds a RemoveCard request
func NewRemoveCard(id types.CardID, lastPos models.Position) Request {
	return Request{
		Version:    ProtocolVersion,
		Type:       TypeRequest,
		Op:         OpRemoveCard,
		RemoveCard: &RemoveCardPayload{CardID: id, LastPos: lastPos},
	}
}

// NewHello builds the session-opening frame
func NewHello(sessionID, user string) Request {
	return Request{
		Version: ProtocolVersion,
		Type:    TypeHello,
		Hello:   &HelloMessage{SessionID: sessionID, User: user},
	}
}

// Validate checks that a request frame carries exactly the payload its op names
func (r Request) Validate() error {
	if r.Type != TypeRequest {
		return fmt.Errorf("%w: type %q is not a request", ErrMalformedRequest, r.Type)
	}

	set := 0
	for _, present := range []bool{r.AddCard != nil, r.MoveCard != nil, r.RemoveCard != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: want exactly one payload, got %d", ErrMalformedRequest, set)
	}

	switch r.Op {
	case OpAddCard:
		if r.AddCard == nil {
			return fmt.Errorf("%w: %s without addCard payload", ErrMalformedRequest, r.Op)
		}
	case OpMoveCard:
		if r.MoveCard == nil {
			return fmt.Errorf("%w: %s without moveCard payload", ErrMalformedRequest, r.Op)
		}
	case OpRemoveCard:
		if r.RemoveCard == nil {
			return fmt.Errorf("%w: %s without removeCard payload", ErrMalformedRequest, r.Op)
		}
	default:
		return fmt.Errorf("%w: unknown op %q", ErrMalformedRequest, r.Op)
	}
	return nil
}

// CardID returns the id of the card the request concerns
func (r Request) CardID() types.CardID {
	switch {
	case r.AddCard != nil:
		return r.AddCard.Card.ID
	case r.MoveCard != nil:
		return r.MoveCard.CardID
	case r.RemoveCard != nil:
		return r.RemoveCard.CardID
	}
	return 0
}

// Ack builds the acknowledgement for seq
func Ack(seq uint64) Response {
	return Response{Version: ProtocolVersion, Type: TypeAck, Seq: seq}
}

// Reject builds a rejection for seq carrying a machine-readable code
func Reject(seq uint64, code string, err error) Response {
	return Response{Version: ProtocolVersion, Type: TypeReject, Seq: seq, Code: code, Error: err.Error()}
}
