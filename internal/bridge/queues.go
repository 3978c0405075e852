package bridge

import (
	"sync"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/types"
)

// requestQueue moves parsed requests from the I/O worker to the main
// thread. Writers append, the reader drains; the mutex is held only for
// the append or the swap.
type requestQueue struct {
	mu    sync.Mutex
	items []types.ParsedRequest
}

func (q *requestQueue) push(p types.ParsedRequest) {
	q.mu.Lock()
	q.items = append(q.items, p)
	q.mu.Unlock()
}

func (q *requestQueue) drain() []types.ParsedRequest {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// responseQueue moves serialized response lines from the main thread to
// the I/O worker. Each line already carries its trailing newline.
type responseQueue struct {
	mu    sync.Mutex
	lines [][]byte
}

func (q *responseQueue) push(line []byte) {
	q.mu.Lock()
	q.lines = append(q.lines, line)
	q.mu.Unlock()
}

func (q *responseQueue) drain() [][]byte {
	q.mu.Lock()
	lines := q.lines
	q.lines = nil
	q.mu.Unlock()
	return lines
}
