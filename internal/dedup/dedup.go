package dedup

import (
	"sync"

	"github.com/tracyhatemice/mailbridge/internal/record"
)

// Tracker keeps track of notified email IDs to prevent duplicate alerts.
// State lives for the process lifetime only; a restart starts empty, which
// gives at-most-once delivery per run.
type Tracker struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		ids: make(map[string]struct{}),
	}
}

// FilterUnseen returns the records that have not been notified yet, in input
// order, and marks their IDs seen in the same critical section. Checking and
// marking are one atomic step so two concurrent notification paths cannot
// both select the same message. Records without an ID cannot be deduplicated
// and always pass through.
func (t *Tracker) FilterUnseen(records []record.Email) []record.Email {
	t.mu.Lock()
	defer t.mu.Unlock()

	var unseen []record.Email
	for _, r := range records {
		if r.MessageID == "" {
			unseen = append(unseen, r)
			continue
		}
		if _, seen := t.ids[r.MessageID]; seen {
			continue
		}
		t.ids[r.MessageID] = struct{}{}
		unseen = append(unseen, r)
	}
	return unseen
}

// Count returns the number of tracked IDs.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}
