package bridgeclient

import (
	"bytes"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/bridge"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/enginesim"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/registry"
)

const testToken = "client-test-token-000001"

func startBridge(t *testing.T, tier registry.Tier, danger bool) (int, *enginesim.Sim) {
	t.Helper()
	sim := enginesim.New()
	root := enginesim.NewNode("Main", "Node2D")
	root.AddChild(enginesim.NewNode("Foo", "Node").SetProp("state", "idle"))
	sim.SetRoot(root)

	var banner bytes.Buffer
	b := bridge.New(sim, bridge.Config{
		Token: testToken, Tier: tier, DangerEnabled: danger,
		Banner: &banner, Logger: log.New(io.Discard, "", 0),
	})
	b.Start()
	port, err := b.WaitReady(5 * time.Second)
	if err != nil {
		t.Fatalf("bridge not ready: %v", err)
	}

	var stopped atomic.Bool
	go func() {
		for !stopped.Load() {
			b.Tick()
			sim.Step()
			time.Sleep(2 * time.Millisecond)
		}
	}()
	t.Cleanup(func() {
		stopped.Store(true)
		b.Shutdown()
	})
	return port, sim
}

func newClient(t *testing.T, port int) *Client {
	t.Helper()
	c := New(port, testToken, log.New(io.Discard, "", 0))
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestClient_PingAndProperties(t *testing.T) {
	port, _ := startBridge(t, registry.TierControl, false)
	c := newClient(t, port)

	if err := c.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	value, err := c.GetProperty("Main/Foo", "state")
	if err != nil {
		t.Fatalf("get_property: %v", err)
	}
	if value != "idle" {
		t.Fatalf("value: %v", value)
	}

	if err := c.SetProperty("Main/Foo", "state", "done"); err != nil {
		t.Fatalf("set_property: %v", err)
	}
	value, _ = c.GetProperty("Main/Foo", "state")
	if value != "done" {
		t.Fatalf("value after set: %v", value)
	}
}

func TestClient_CommandErrorSurfaced(t *testing.T) {
	port, _ := startBridge(t, registry.TierInput, false)
	c := newClient(t, port)

	_, err := c.GetProperty("Main/Nope", "state")
	if err == nil {
		t.Fatalf("expected not_found")
	}
	cmdErr, ok := err.(*CommandError)
	if !ok || cmdErr.Code != "not_found" {
		t.Fatalf("error shape: %v", err)
	}

	// Tier denial carries tier_required in Extra.
	_, err = c.call("eval", map[string]any{"expr": "1+1"})
	cmdErr, ok = err.(*CommandError)
	if !ok || cmdErr.Code != "tier_denied" || cmdErr.Extra["tier_required"] != float64(3) {
		t.Fatalf("tier_denied shape: %v", err)
	}
}

func TestClient_WaitFor(t *testing.T) {
	port, _ := startBridge(t, registry.TierControl, false)
	c := newClient(t, port)

	done := make(chan *WaitResult, 1)
	go func() {
		result, err := c.WaitFor("Main/Foo", "state", "done", 3000)
		if err != nil {
			t.Errorf("wait_for: %v", err)
			done <- nil
			return
		}
		done <- result
	}()

	time.Sleep(50 * time.Millisecond)
	if err := c.SetProperty("Main/Foo", "state", "done"); err != nil {
		t.Fatalf("set_property: %v", err)
	}

	select {
	case result := <-done:
		if result == nil || !result.Matched {
			t.Fatalf("wait result: %+v", result)
		}
		if result.ElapsedMS > 3000 {
			t.Fatalf("elapsed: %d", result.ElapsedMS)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("wait_for never resolved")
	}
}

func TestClient_Capabilities(t *testing.T) {
	port, _ := startBridge(t, registry.TierInput, false)
	c := newClient(t, port)

	commands, err := c.Capabilities()
	if err != nil {
		t.Fatalf("capabilities: %v", err)
	}
	joined := strings.Join(commands, ",")
	if !strings.Contains(joined, "click") || strings.Contains(joined, "eval") {
		t.Fatalf("capabilities content: %v", commands)
	}
}

func TestClient_Screenshot(t *testing.T) {
	port, _ := startBridge(t, registry.TierObserve, false)
	c := newClient(t, port)

	data, width, height, err := c.Screenshot()
	if err != nil {
		t.Fatalf("screenshot: %v", err)
	}
	if len(data) == 0 || width <= 0 || height <= 0 {
		t.Fatalf("screenshot payload: %d bytes, %dx%d", len(data), width, height)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("not a PNG payload")
	}
}

func TestParseBanner(t *testing.T) {
	line := `GDRB_READY:{"proto":"grb/1","port":4455,"token":"abc","tier_default":1,"input_mode":"synthetic"}`
	b, err := ParseBanner(line)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if b.Port != 4455 || b.Token != "abc" || b.Proto != "grb/1" {
		t.Fatalf("banner: %+v", b)
	}

	// Prefix-free form, as written to the ready file.
	b, err = ParseBanner(`{"proto":"grb/1","port":1,"token":"t","tier_default":0,"input_mode":"os"}`)
	if err != nil || b.InputMode != "os" {
		t.Fatalf("prefix-free parse: %v %+v", err, b)
	}

	if _, err := ParseBanner("Godot Engine v4.3 started"); err == nil {
		t.Fatalf("engine chatter accepted as banner")
	}
	if _, err := ParseBanner(`GDRB_READY:{"proto":"grb/1","port":0,"token":""}`); err == nil {
		t.Fatalf("banner without port/token accepted")
	}
}
