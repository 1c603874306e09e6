package watch

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Veraticus/undercut/internal/model"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTrackerSize bounds how many queue entries are remembered across
// cycles. Older entries are evicted and reported as new if they reappear.
const DefaultTrackerSize = 10000

// Tracker remembers which products were queued in the previous cycle so
// that only newcomers are announced.
type Tracker struct {
	seen *lru.Cache[string, struct{}]
	mu   sync.Mutex
}

// NewTracker creates a tracker remembering at most size queue entries.
func NewTracker(size int) (*Tracker, error) {
	if size <= 0 {
		size = DefaultTrackerSize
	}
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue tracker: %w", err)
	}
	return &Tracker{seen: cache}, nil
}

func trackerKey(item model.ActionQueueItem) string {
	return item.AccountID + "\x00" + item.ProductID + "\x00" + string(item.IssueType)
}

// Observe records an account's current queue and returns the items that
// were not queued in the account's previous observation. Items that left
// the queue are forgotten, so they count as new when they come back.
func (t *Tracker) Observe(accountID string, queue []model.ActionQueueItem) []model.ActionQueueItem {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := make(map[string]struct{}, len(queue))
	var fresh []model.ActionQueueItem
	for _, item := range queue {
		key := trackerKey(item)
		current[key] = struct{}{}
		if !t.seen.Contains(key) {
			fresh = append(fresh, item)
		}
		t.seen.Add(key, struct{}{})
	}

	prefix := accountID + "\x00"
	for _, key := range t.seen.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if _, ok := current[key]; !ok {
			t.seen.Remove(key)
		}
	}
	return fresh
}

// Len returns the number of remembered queue entries.
func (t *Tracker) Len() int {
	return t.seen.Len()
}
