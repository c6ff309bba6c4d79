package moderation

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const floodTrackerSize = 8192

type floodKey struct {
	chatID int64
	userID int64
}

// FloodTracker counts recent messages per chat member inside a sliding window.
type FloodTracker struct {
	limit  int
	window time.Duration
	mu     sync.Mutex
	hits   *expirable.LRU[floodKey, []time.Time]
}

func NewFloodTracker(limit int, window time.Duration) *FloodTracker {
	return &FloodTracker{
		limit:  limit,
		window: window,
		hits:   expirable.NewLRU[floodKey, []time.Time](floodTrackerSize, nil, window),
	}
}

// Hit records a message and reports whether the member exceeded the limit.
func (f *FloodTracker) Hit(chatID, userID int64, at time.Time) bool {
	key := floodKey{chatID: chatID, userID: userID}

	f.mu.Lock()
	defer f.mu.Unlock()

	previous, _ := f.hits.Peek(key)
	kept := make([]time.Time, 0, len(previous)+1)
	for _, ts := range previous {
		if at.Sub(ts) <= f.window {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, at)
	f.hits.Add(key, kept)
	return len(kept) > f.limit
}

func (f *FloodTracker) Clear(chatID, userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits.Remove(floodKey{chatID: chatID, userID: userID})
}
