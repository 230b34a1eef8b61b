package board

import (
	"fmt"
	"time"

	"github.com/thenoetrevino/kansync/internal/types"
)

// ID strategies accepted by NewIDGenerator
const (
	StrategyMonotonic = "monotonic"
	StrategyClock     = "clock"
)

// IDGenerator hands out card ids that have not been used in this process
type IDGenerator interface {
	NextCardID() types.CardID
}

// MonotonicIDs is an in-process counter seeded above the highest existing id.
// Not safe for concurrent use; the UI event loop is its only caller.
type MonotonicIDs struct {
	last types.CardID
}

// NewMonotonicIDs returns a generator whose first id is floor+1
func NewMonotonicIDs(floor types.CardID) *MonotonicIDs {
	return &MonotonicIDs{last: floor}
}

// NextCardID returns the next id
func (g *MonotonicIDs) NextCardID() types.CardID {
	g.last++
	return g.last
}

// ClockIDs derives ids from the wall clock in milliseconds since the epoch.
// Ids stay strictly increasing when several cards are created within the
// same millisecond or the clock steps backwards.
type ClockIDs struct {
	last types.CardID
	now  func() time.Time
}

// NewClockIDs returns a clock-based generator that never returns an id <= floor
func NewClockIDs(floor types.CardID) *ClockIDs {
	return &ClockIDs{last: floor, now: time.Now}
}

// NextCardID returns max(now in ms, last+1)
func (g *ClockIDs) NextCardID() types.CardID {
	id := types.CardID(g.now().UnixMilli())
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// NewIDGenerator builds the generator named by strategy. floor is the highest
// id already present on the board; generated ids are always above it.
func NewIDGenerator(strategy string, floor types.CardID) (IDGenerator, error) {
	switch strategy {
	case "", StrategyMonotonic:
		return NewMonotonicIDs(floor), nil
	case StrategyClock:
		return NewClockIDs(floor), nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q (want %q or %q)", strategy, StrategyMonotonic, StrategyClock)
	}
}
