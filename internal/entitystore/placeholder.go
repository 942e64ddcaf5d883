package entitystore

import (
	"sync"
	"time"
)

// PlaceholderIDs hands out keys for records created before the server has
// seen them: negative millisecond timestamps, strictly decreasing, so they
// never meet a server id (always positive) or each other. One generator is
// shared by every collection.
type PlaceholderIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewPlaceholderIDs starts below floor, the smallest key already stored
// locally, so a restart never reissues a key.
func NewPlaceholderIDs(floor int64) *PlaceholderIDs {
	if floor > 0 {
		floor = 0
	}
	return &PlaceholderIDs{last: floor, now: time.Now}
}

func (g *PlaceholderIDs) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := -g.now().UnixMilli()
	if id >= g.last {
		id = g.last - 1
	}
	g.last = id
	return id
}
