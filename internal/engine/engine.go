// Package engine defines the capability surface the bridge needs from its
// host game engine. Every method on Engine and Node is main-thread-only:
// the bridge calls them exclusively from the host's frame tick, never from
// the I/O worker.
package engine

import (
	"image"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/diag"
)

// InputMode selects how injected input is routed.
type InputMode string

const (
	// ModeSynthetic pushes tagged events into the engine's input queue
	// without touching the OS cursor. Untagged device input is filtered
	// at the viewport while this mode is active.
	ModeSynthetic InputMode = "synthetic"
	// ModeOS additionally warps the OS cursor to the event position.
	ModeOS InputMode = "os"
)

// Node is a live scene-graph node reference. A reference can outlive the
// node it points at; Valid reports whether it still resolves.
type Node interface {
	Name() string
	Type() string
	Path() string
	Valid() bool
	Children() []Node
	Groups() []string

	// Get reads a property; the second return is false when the property
	// does not exist.
	Get(property string) (any, bool)
	// Set writes a property; false when the property does not exist.
	Set(property string, value any) bool
	// Call invokes a method. The second return is false when the method
	// does not exist.
	Call(method string, args []any) (any, bool, error)
}

// Pressable is implemented by button-typed nodes. Press invokes the node's
// activation listeners directly; the bridge uses it instead of routing a
// press through signal dispatch, which misbehaves under some viewport
// configurations in the host.
type Pressable interface {
	Press()
}

// CustomCommand is a game-registered callable exposed through
// run_custom_command.
type CustomCommand func(args []any) (any, error)

// Engine is the host capability surface.
type Engine interface {
	// Root returns the current scene root, or nil before a scene loads.
	Root() Node
	// Resolve looks up a node by hierarchical path ("Main/Player/Sprite"
	// or "/root/Main/Player"). Nil when the path does not resolve.
	Resolve(path string) Node

	// Input.
	PushInput(ev InputEvent)
	SetInputIntercept(active bool)
	WarpMouse(x, y float64)
	VibrateGamepad(device int, weak, strong float64, durationMS int)

	// Rendering.
	CaptureViewport() (image.Image, error)

	// Telemetry.
	Version() string
	FPS() float64
	ProcessFrames() int64
	TimeScale() float64
	CurrentScenePath() string
	CurrentSceneName() string
	NodeCount() int
	AudioState() map[string]any
	NetworkState() map[string]any
	Performance() map[string]any

	// Control.
	Eval(expr string) (any, error)
	RequestQuit()
	SetLowProcessorMode(enabled bool)
	SetWindowed(windowed bool)
	CustomCommand(name string) (CustomCommand, bool)

	// Diagnostics. AttachLogSink subscribes the sink to the host logging
	// facility; DetachLogSink removes it at shutdown.
	AttachLogSink(s *diag.Sink)
	DetachLogSink()
}
