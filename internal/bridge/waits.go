package bridge

import (
	"time"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/engine"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/types"
)

const defaultWaitTimeout = 5000 * time.Millisecond

// pendingWait is one outstanding wait_for request, polled each frame until
// the watched property matches, the timeout elapses, or the node reference
// is invalidated.
type pendingWait struct {
	id       string
	nodePath string
	node     engine.Node
	property string
	expected string
	start    time.Time
	deadline time.Time
}

// addWait validates a wait_for request and enqueues it for per-frame
// polling. Validation failures answer immediately instead of enqueueing.
func (b *Bridge) addWait(req types.Request) {
	path, okNode := argString(req.Args, "node")
	property, okProp := argString(req.Args, "property")
	expected, okValue := req.Args["value"]
	if !okNode || !okProp || !okValue {
		b.respondError(req.ID, types.NewError(types.ErrBadArgs, "node, property and value are required"))
		return
	}
	node := b.eng.Resolve(path)
	if node == nil {
		b.respondError(req.ID, types.NewError(types.ErrNotFound, "node %q not found", path))
		return
	}

	timeout := defaultWaitTimeout
	if ms, ok := argFloat(req.Args, "timeout_ms"); ok && ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	now := time.Now()
	b.waits = append(b.waits, &pendingWait{
		id:       req.ID,
		nodePath: path,
		node:     node,
		property: property,
		expected: engine.StringifyValue(expected),
		start:    now,
		deadline: now.Add(timeout),
	})
}

// pollWaits resolves pending waits. Equality is tested on the stringified
// forms: compound engine values have no stable JSON equivalence, so the
// string form is the contract.
func (b *Bridge) pollWaits() {
	if len(b.waits) == 0 {
		return
	}
	now := time.Now()
	keep := b.waits[:0]
	for _, w := range b.waits {
		if !w.node.Valid() {
			b.respondError(w.id, types.NewError(types.ErrNotFound, "node %q was freed", w.nodePath))
			continue
		}
		elapsed := now.Sub(w.start).Milliseconds()

		value, hasProp := w.node.Get(w.property)
		if hasProp && engine.StringifyValue(value) == w.expected {
			b.respondOK(w.id, map[string]any{
				"matched":    true,
				"elapsed_ms": elapsed,
			})
			continue
		}
		if !now.Before(w.deadline) {
			b.respondOK(w.id, map[string]any{
				"matched":    false,
				"elapsed_ms": elapsed,
				"last_value": engine.MarshalValue(value),
			})
			continue
		}
		keep = append(keep, w)
	}
	b.waits = keep
}
