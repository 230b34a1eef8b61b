package client

import (
	"context"

	"github.com/thenoetrevino/kansync/internal/protocol"
)

// Publisher delivers board mutations to the host without blocking the caller.
// Results arrive later on Outcomes.
type Publisher interface {
	// Connect dials the host eagerly. Without it the first Send dials.
	Connect(ctx context.Context) error

	// Send queues a request and returns the sequence number assigned to it
	Send(req protocol.Request) (uint64, error)

	// Outcomes yields one terminal Outcome per accepted request
	Outcomes() <-chan Outcome

	// InFlight returns how many requests are still pending
	InFlight() int

	// Close flushes queued requests, waits briefly for acks and stops all goroutines
	Close() error
}

// Compile-time verification that *Client implements Publisher
var _ Publisher = (*Client)(nil)
