// Command gdrb-host is a demo host process: a simulated engine with a
// small test scene, running the bridge through the real activation gate
// and a fixed-rate frame loop. It is what the launcher spawns in
// integration runs when no real game is at hand.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/bridge"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/engine"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/enginesim"
)

const frameRate = 60

func main() {
	logger := log.New(os.Stderr, "[gdrb-host] ", log.LstdFlags)

	sim := enginesim.New()
	sim.SetRoot(buildDemoScene(sim))
	sim.RegisterCommand("give_gold", func(args []any) (any, error) {
		amount := 100.0
		if len(args) > 0 {
			if n, ok := args[0].(float64); ok {
				amount = n
			}
		}
		return map[string]any{"granted": amount}, nil
	})

	// The demo binary carries the grb feature tag; the environment half
	// of the gate still decides whether the bridge starts.
	b := bridge.Activate(sim, bridge.FeatureTags{"grb", "debug"}, logger)
	if b == nil {
		fmt.Fprintln(os.Stderr, "bridge inactive: set GDRB_TOKEN or GODOT_DEBUG_SERVER=1")
		os.Exit(1)
	}
	defer b.Shutdown()

	if _, err := b.WaitReady(10 * time.Second); err != nil {
		logger.Printf("bridge failed to start: %v", err)
		os.Exit(1)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.Tick()
			sim.Step()
			if sim.QuitRequested() {
				logger.Printf("quit requested, exiting")
				return
			}
		case <-interrupt:
			logger.Printf("interrupted, exiting")
			return
		}
	}
}

// buildDemoScene assembles the scene the integration missions drive: a
// gesture target, a waitable state machine, and a clickable button.
func buildDemoScene(sim *enginesim.Sim) *enginesim.Node {
	root := enginesim.NewNode("Main", "Node2D")

	foo := enginesim.NewNode("Foo", "Node").SetProp("state", "idle")
	foo.DefineMethod("finish", func(args []any) (any, error) {
		foo.SetProp("state", "done")
		return "done", nil
	})
	root.AddChild(foo)

	gesture := enginesim.NewNode("GestureTest", "Node2D").SetProp("zoom", 1.0)
	gesture.OnInput = func(ev engine.InputEvent) {
		if ev.Kind == engine.KindPinchGesture {
			zoom, _ := gesture.Get("zoom")
			gesture.SetProp("zoom", zoom.(float64)*ev.Scale)
		}
	}
	root.AddChild(gesture)

	score := enginesim.NewNode("Score", "Label").SetProp("value", 0)
	root.AddChild(score)

	button := enginesim.NewButton("StartButton", func() {
		v, _ := score.Get("value")
		score.SetProp("value", v.(int)+1)
	})
	button.AddToGroup("ui")
	root.AddChild(button)

	player := enginesim.NewNode("Player", "CharacterBody2D").
		SetProp("health", 100).
		AddToGroup("actors")
	player.AddChild(enginesim.NewNode("Sprite", "Sprite2D"))
	root.AddChild(player)

	return root
}
