// Package diag captures engine diagnostics into a bounded ring readable by
// index cursor. The sink is registered with the host logger at bridge
// startup; writes may arrive from any thread the engine logs from.
package diag

import (
	"sync"
	"time"
)

// ringCap is the maximum number of retained entries. Overflow drops the
// oldest entries; index values keep advancing.
const ringCap = 500

// Kind classifies a diagnostic entry.
type Kind string

const (
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindScript  Kind = "script"
	KindShader  Kind = "shader"
	KindMessage Kind = "message"
)

// Entry is one captured diagnostic. Index is strictly increasing and dense;
// it is the client's cursor for incremental polling.
type Entry struct {
	Index       int    `json:"index"`
	Kind        Kind   `json:"kind"`
	File        string `json:"file,omitempty"`
	Line        int    `json:"line,omitempty"`
	Function    string `json:"function,omitempty"`
	Code        string `json:"code,omitempty"`
	Rationale   string `json:"rationale,omitempty"`
	TimestampMS int64  `json:"timestamp_ms"`
}

// Sink is the bounded diagnostic ring. Safe for concurrent use.
type Sink struct {
	mu           sync.Mutex
	entries      []Entry
	nextIndex    int
	errorCount   int
	warningCount int
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Log appends a diagnostic entry, assigning it the next index.
func (s *Sink) Log(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.Index = s.nextIndex
	s.nextIndex++
	if e.TimestampMS == 0 {
		e.TimestampMS = time.Now().UnixMilli()
	}

	switch e.Kind {
	case KindError, KindScript, KindShader:
		s.errorCount++
	case KindWarning:
		s.warningCount++
	}

	s.entries = append(s.entries, e)
	if len(s.entries) > ringCap {
		s.entries = s.entries[len(s.entries)-ringCap:]
	}
}

// Since returns a snapshot of all retained entries with index >= since,
// plus the next cursor value.
func (s *Sink) Since(since int) ([]Entry, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for _, e := range s.entries {
		if e.Index >= since {
			out = append(out, e)
		}
	}
	return out, s.nextIndex
}

// Counts returns the running error and warning totals. The totals survive
// ring overflow.
func (s *Sink) Counts() (errors, warnings int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCount, s.warningCount
}

// Len returns the number of retained entries.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear resets the ring and the totals. Used by tests.
func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.nextIndex = 0
	s.errorCount = 0
	s.warningCount = 0
}
