package client

import (
	"time"

	"github.com/thenoetrevino/kansync/internal/protocol"
	"github.com/thenoetrevino/kansync/internal/types"
)

// State is where a message is in its lifecycle.
// Pending moves to exactly one of Acknowledged or Failed.
type State int

const (
	Pending State = iota
	Acknowledged
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Acknowledged:
		return "acknowledged"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the terminal result of one request
type Outcome struct {
	Seq    uint64
	Op     protocol.Operation
	CardID types.CardID
	State  State
	Err    error
}

// inflight is a request that was written and awaits an ack
type inflight struct {
	req    protocol.Request
	sentAt time.Time
}
