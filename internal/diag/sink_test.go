package diag

import (
	"fmt"
	"sync"
	"testing"
)

func TestSince_Cursor(t *testing.T) {
	s := NewSink()
	for i := 0; i < 5; i++ {
		s.Log(Entry{Kind: KindError, Rationale: fmt.Sprintf("e%d", i)})
	}

	all, next := s.Since(0)
	if len(all) != 5 || next != 5 {
		t.Fatalf("got %d entries next=%d, want 5/5", len(all), next)
	}
	for i, e := range all {
		if e.Index != i {
			t.Fatalf("indices not dense: entry %d has index %d", i, e.Index)
		}
	}

	tail, next2 := s.Since(3)
	if len(tail) != 2 || next2 != next {
		t.Fatalf("since=3: got %d entries next=%d", len(tail), next2)
	}
	if tail[0].Index != 3 {
		t.Fatalf("since=3 starts at %d", tail[0].Index)
	}

	// Polling from the cursor picks up exactly the new entries.
	s.Log(Entry{Kind: KindWarning})
	s.Log(Entry{Kind: KindWarning})
	fresh, _ := s.Since(next)
	if len(fresh) != 2 {
		t.Fatalf("cursor poll: got %d new entries, want 2", len(fresh))
	}
}

func TestRingBound(t *testing.T) {
	s := NewSink()
	total := ringCap + 37
	for i := 0; i < total; i++ {
		s.Log(Entry{Kind: KindMessage})
	}

	if s.Len() != ringCap {
		t.Fatalf("ring holds %d, want %d", s.Len(), ringCap)
	}
	entries, next := s.Since(0)
	if next != total {
		t.Fatalf("next index %d, want %d", next, total)
	}
	if entries[0].Index != total-ringCap {
		t.Fatalf("oldest retained index %d, want %d", entries[0].Index, total-ringCap)
	}
}

func TestCounts(t *testing.T) {
	s := NewSink()
	s.Log(Entry{Kind: KindError})
	s.Log(Entry{Kind: KindScript})
	s.Log(Entry{Kind: KindShader})
	s.Log(Entry{Kind: KindWarning})
	s.Log(Entry{Kind: KindMessage})

	errs, warns := s.Counts()
	if errs != 3 || warns != 1 {
		t.Fatalf("counts %d/%d, want 3/1", errs, warns)
	}

	s.Clear()
	errs, warns = s.Counts()
	if errs != 0 || warns != 0 || s.Len() != 0 {
		t.Fatalf("clear did not reset")
	}
}

func TestConcurrentWriters(t *testing.T) {
	s := NewSink()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Log(Entry{Kind: KindWarning})
			}
		}()
	}
	wg.Wait()

	_, next := s.Since(0)
	if next != 800 {
		t.Fatalf("next index %d after 800 concurrent logs", next)
	}
	_, warns := s.Counts()
	if warns != 800 {
		t.Fatalf("warning count %d, want 800", warns)
	}
}
