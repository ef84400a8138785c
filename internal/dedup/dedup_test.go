package dedup

import (
	"sync"
	"testing"

	"github.com/tracyhatemice/mailbridge/internal/record"
)

func TestFilterUnseenIdempotent(t *testing.T) {
	tr := NewTracker()
	batch := []record.Email{{MessageID: "m1", Subject: "Hi"}}

	first := tr.FilterUnseen(batch)
	if len(first) != 1 {
		t.Fatalf("first pass len = %d, want 1", len(first))
	}

	second := tr.FilterUnseen(batch)
	if len(second) != 0 {
		t.Errorf("second pass len = %d, want 0", len(second))
	}
	if tr.Count() != 1 {
		t.Errorf("Count = %d, want 1", tr.Count())
	}
}

func TestFilterUnseenEmptyIDAlwaysPasses(t *testing.T) {
	tr := NewTracker()
	batch := []record.Email{{Subject: "no id"}}

	for i := 0; i < 3; i++ {
		got := tr.FilterUnseen(batch)
		if len(got) != 1 {
			t.Fatalf("pass %d len = %d, want 1", i, len(got))
		}
	}
	if tr.Count() != 0 {
		t.Errorf("Count = %d, want 0 (unidentifiable records are never marked)", tr.Count())
	}
}

func TestFilterUnseenPreservesOrder(t *testing.T) {
	tr := NewTracker()
	tr.FilterUnseen([]record.Email{{MessageID: "m2"}})

	got := tr.FilterUnseen([]record.Email{
		{MessageID: "m1"},
		{MessageID: "m2"}, // already seen
		{MessageID: "m3"},
		{Subject: "no id"},
	})
	wantIDs := []string{"m1", "m3", ""}
	if len(got) != len(wantIDs) {
		t.Fatalf("len = %d, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].MessageID != id {
			t.Errorf("got[%d].MessageID = %q, want %q", i, got[i].MessageID, id)
		}
	}
}

func TestFilterUnseenConcurrent(t *testing.T) {
	tr := NewTracker()
	batch := []record.Email{{MessageID: "m1"}}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			got := tr.FilterUnseen(batch)
			mu.Lock()
			total += len(got)
			mu.Unlock()
		}()
	}

	close(start)
	wg.Wait()

	if total != 1 {
		t.Errorf("delivered %d times, want exactly 1", total)
	}
}
