package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/engine"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/enginesim"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/registry"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/types"
)

const testToken = "test-token-0123456789abc"

var errBoom = errors.New("boom")

// buildScene assembles the scene used across the handler tests:
//
//	Main (Node2D)
//	├── Player (CharacterBody2D) [group: actors]
//	│   └── Sprite (Sprite2D)
//	├── Foo (Node) with state="idle"
//	├── GestureTest (Node2D) with zoom=1.0, pinch handler
//	├── StartButton (Button)
//	└── Counter (Node) with value=0, method increment
func buildScene(sim *enginesim.Sim) *enginesim.Node {
	root := enginesim.NewNode("Main", "Node2D")

	player := enginesim.NewNode("Player", "CharacterBody2D").AddToGroup("actors")
	player.SetProp("health", 100)
	player.AddChild(enginesim.NewNode("Sprite", "Sprite2D"))
	root.AddChild(player)

	root.AddChild(enginesim.NewNode("Foo", "Node").SetProp("state", "idle"))

	gesture := enginesim.NewNode("GestureTest", "Node2D").SetProp("zoom", 1.0)
	gesture.OnInput = func(ev engine.InputEvent) {
		if ev.Kind == engine.KindPinchGesture {
			zoom, _ := gesture.Get("zoom")
			gesture.SetProp("zoom", zoom.(float64)*ev.Scale)
		}
	}
	root.AddChild(gesture)

	root.AddChild(enginesim.NewButton("StartButton", nil))

	counter := enginesim.NewNode("Counter", "Node").SetProp("value", 0)
	counter.DefineMethod("increment", func(args []any) (any, error) {
		v, _ := counter.Get("value")
		next := v.(int) + 1
		counter.SetProp("value", next)
		return next, nil
	})
	counter.DefineMethod("fail", func(args []any) (any, error) {
		return nil, fmt.Errorf("boom")
	})
	root.AddChild(counter)

	sim.SetRoot(root)
	return root
}

func newTestBridge(t *testing.T, cfg Config) (*Bridge, *enginesim.Sim) {
	t.Helper()
	sim := enginesim.New()
	buildScene(sim)

	if cfg.Token == "" {
		cfg.Token = testToken
	}
	cfg.Banner = io.Discard
	cfg.Logger = log.New(io.Discard, "", 0)
	b := New(sim, cfg)

	// Dispatch tests drive Tick directly without the I/O worker; wire the
	// pieces Start would.
	sim.AttachLogSink(b.sink)
	if cfg.InputMode != engine.ModeOS {
		sim.SetInputIntercept(true)
	}
	return b, sim
}

// send parses a raw request line into the inbound queue, runs one tick,
// and returns all responses emitted by it.
func send(t *testing.T, b *Bridge, line string) []map[string]any {
	t.Helper()
	b.in.push(types.ParseLine([]byte(line)))
	b.Tick()
	return drainResponses(t, b)
}

func drainResponses(t *testing.T, b *Bridge) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, raw := range b.out.drain() {
		var env map[string]any
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("response is not valid JSON: %v (%q)", err, raw)
		}
		out = append(out, env)
	}
	return out
}

// one asserts exactly one response and returns it.
func one(t *testing.T, responses []map[string]any) map[string]any {
	t.Helper()
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1: %v", len(responses), responses)
	}
	return responses[0]
}

func errCode(t *testing.T, env map[string]any) string {
	t.Helper()
	if env["ok"] != false {
		t.Fatalf("expected error envelope, got %v", env)
	}
	errObj, ok := env["error"].(map[string]any)
	if !ok {
		t.Fatalf("error object missing: %v", env)
	}
	code, _ := errObj["code"].(string)
	return code
}

func reqLine(id, cmd, token string, args map[string]any) string {
	env := map[string]any{"id": id, "cmd": cmd}
	if token != "" {
		env["token"] = token
	}
	if args != nil {
		env["args"] = args
	}
	data, _ := json.Marshal(env)
	return string(data)
}

func defaultConfig(tier registry.Tier) Config {
	return Config{Tier: tier}
}

func discardBanner() io.Writer { return io.Discard }

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }
