package bridge

import (
	"testing"
	"time"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/enginesim"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/registry"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/types"
)

func waitRequest(id string, timeoutMS int) string {
	return reqLine(id, "wait_for", testToken, map[string]any{
		"node": "Main/Foo", "property": "state", "value": "done",
		"timeout_ms": timeoutMS,
	})
}

func TestWait_MatchBeforeTimeout(t *testing.T) {
	b, _ := newTestBridge(t, defaultConfig(registry.TierControl))

	// The wait enqueues without an immediate response.
	responses := send(t, b, waitRequest("w", 1000))
	if len(responses) != 0 {
		t.Fatalf("wait_for answered synchronously: %v", responses)
	}

	// Another command flips the property; the next poll resolves.
	one(t, send(t, b, reqLine("set", "set_property", testToken,
		map[string]any{"node": "Main/Foo", "property": "state", "value": "done"})))
	b.Tick()

	env := one(t, drainResponses(t, b))
	if env["id"] != "w" || env["ok"] != true || env["matched"] != true {
		t.Fatalf("wait match: %v", env)
	}
	if env["elapsed_ms"].(float64) > 1000 {
		t.Fatalf("elapsed exceeds timeout: %v", env)
	}
}

func TestWait_Timeout(t *testing.T) {
	b, _ := newTestBridge(t, defaultConfig(registry.TierObserve))

	if responses := send(t, b, waitRequest("w", 40)); len(responses) != 0 {
		t.Fatalf("unexpected immediate response: %v", responses)
	}

	deadline := time.Now().Add(2 * time.Second)
	var env map[string]any
	for env == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
		b.Tick()
		if rs := drainResponses(t, b); len(rs) > 0 {
			env = one(t, rs)
		}
	}
	if env == nil {
		t.Fatalf("wait never resolved")
	}
	if env["matched"] != false || env["last_value"] != "idle" {
		t.Fatalf("timeout response: %v", env)
	}
	if env["elapsed_ms"].(float64) < 40 {
		t.Fatalf("elapsed below timeout: %v", env)
	}
}

func TestWait_NodeFreed(t *testing.T) {
	b, sim := newTestBridge(t, defaultConfig(registry.TierObserve))
	if responses := send(t, b, waitRequest("w", 5000)); len(responses) != 0 {
		t.Fatalf("unexpected immediate response: %v", responses)
	}

	// Free the watched node; the next poll reports not_found.
	root := sim.Root().(*enginesim.Node)
	for _, child := range root.Children() {
		if child.Name() == "Foo" {
			child.(*enginesim.Node).Remove()
		}
	}
	b.Tick()

	env := one(t, drainResponses(t, b))
	if env["id"] != "w" || errCode(t, env) != types.ErrNotFound {
		t.Fatalf("freed node: %v", env)
	}
}

func TestWait_MissingNodeAnswersImmediately(t *testing.T) {
	b, _ := newTestBridge(t, defaultConfig(registry.TierObserve))
	env := one(t, send(t, b, reqLine("w", "wait_for", testToken, map[string]any{
		"node": "Main/Ghost", "property": "state", "value": "x",
	})))
	if errCode(t, env) != types.ErrNotFound {
		t.Fatalf("missing node: %v", env)
	}

	env = one(t, send(t, b, reqLine("w2", "wait_for", testToken, map[string]any{
		"node": "Main/Foo",
	})))
	if errCode(t, env) != types.ErrBadArgs {
		t.Fatalf("missing args: %v", env)
	}
}

func TestWait_NumericStringification(t *testing.T) {
	b, _ := newTestBridge(t, defaultConfig(registry.TierControl))
	one(t, send(t, b, reqLine("set", "set_property", testToken,
		map[string]any{"node": "Main/GestureTest", "property": "zoom", "value": 2})))

	// JSON 2 and stored float64(2) stringify identically.
	responses := send(t, b, reqLine("w", "wait_for", testToken, map[string]any{
		"node": "Main/GestureTest", "property": "zoom", "value": 2, "timeout_ms": 500,
	}))
	if len(responses) != 0 {
		t.Fatalf("unexpected immediate response: %v", responses)
	}
	b.Tick()
	env := one(t, drainResponses(t, b))
	if env["matched"] != true {
		t.Fatalf("numeric forms should match by string: %v", env)
	}
}

func TestWait_ElapsedMonotonic(t *testing.T) {
	b, _ := newTestBridge(t, defaultConfig(registry.TierObserve))
	if responses := send(t, b, waitRequest("w", 120)); len(responses) != 0 {
		t.Fatalf("unexpected immediate response: %v", responses)
	}

	var last float64
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(15 * time.Millisecond)
		b.Tick()
		rs := drainResponses(t, b)
		if len(rs) == 0 {
			continue
		}
		env := one(t, rs)
		elapsed := env["elapsed_ms"].(float64)
		if elapsed < last {
			t.Fatalf("elapsed decreased: %v < %v", elapsed, last)
		}
		return
	}
	t.Fatalf("wait never resolved")
}
