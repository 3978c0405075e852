// Package enginesim is an in-memory engine.Engine used by the demo host
// and the test suite. It models the pieces of the host the bridge touches:
// a mutable node tree, a viewport input queue with tagged-event filtering,
// a framebuffer, telemetry, and a constant-expression evaluator.
package enginesim

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"image"
	"image/color"
	"strings"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/diag"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/engine"
)

// Sim implements engine.Engine. All methods follow the main-thread-only
// contract; nothing here is synchronized.
type Sim struct {
	root       *Node
	frame      int64
	timeScale  float64
	fps        float64
	intercept  bool
	queue      []engine.InputEvent
	width      int
	height     int
	background color.RGBA
	captureErr error

	mouseX, mouseY float64 // warped OS cursor position

	sink     *diag.Sink
	commands map[string]engine.CustomCommand

	quitRequested    bool
	lowProcessorMode bool
	windowed         bool

	vibrations []Vibration
}

// Vibration records a VibrateGamepad call for inspection.
type Vibration struct {
	Device       int
	Weak, Strong float64
	DurationMS   int
}

// New creates a Sim with an empty scene and a 960x540 viewport.
func New() *Sim {
	return &Sim{
		timeScale:        1.0,
		fps:              60.0,
		width:            960,
		height:           540,
		background:       color.RGBA{30, 30, 46, 255},
		lowProcessorMode: true,
		commands:         make(map[string]engine.CustomCommand),
	}
}

// SetRoot installs the scene root.
func (s *Sim) SetRoot(root *Node) {
	s.root = root
	if root != nil {
		root.attach(s, nil)
	}
}

// Step advances one frame: increments the frame counter and delivers
// queued input to the scene. While intercept is active, untagged events
// are dropped before they reach any node.
func (s *Sim) Step() {
	s.frame++
	queued := s.queue
	s.queue = nil
	for _, ev := range queued {
		if s.intercept && !ev.Synthetic {
			continue
		}
		s.deliver(s.root, ev)
	}
}

func (s *Sim) deliver(n *Node, ev engine.InputEvent) {
	if n == nil || !n.valid {
		return
	}
	if n.OnInput != nil {
		n.OnInput(ev)
	}
	for _, c := range n.children {
		s.deliver(c, ev)
	}
}

// RegisterCommand adds a game-defined callable for run_custom_command.
func (s *Sim) RegisterCommand(name string, fn engine.CustomCommand) {
	s.commands[name] = fn
}

// SetViewportSize resizes the framebuffer.
func (s *Sim) SetViewportSize(w, h int) {
	s.width, s.height = w, h
}

// FailCapture makes CaptureViewport return err until reset with nil.
func (s *Sim) FailCapture(err error) {
	s.captureErr = err
}

// SetFPS overrides the reported frame rate.
func (s *Sim) SetFPS(fps float64) {
	s.fps = fps
}

// QuitRequested reports whether RequestQuit has been called.
func (s *Sim) QuitRequested() bool {
	return s.quitRequested
}

// LowProcessorMode reports the current low-processor setting.
func (s *Sim) LowProcessorMode() bool {
	return s.lowProcessorMode
}

// Windowed reports whether windowed presentation was forced.
func (s *Sim) Windowed() bool {
	return s.windowed
}

// MousePosition returns the last warped cursor position.
func (s *Sim) MousePosition() (x, y float64) {
	return s.mouseX, s.mouseY
}

// Vibrations returns recorded gamepad vibration calls.
func (s *Sim) Vibrations() []Vibration {
	return s.vibrations
}

// QueuedEvents returns events not yet delivered by Step.
func (s *Sim) QueuedEvents() []engine.InputEvent {
	return s.queue
}

// LogError feeds an error diagnostic into the attached sink, as the host
// logger would.
func (s *Sim) LogError(file string, line int, function, code, rationale string) {
	if s.sink != nil {
		s.sink.Log(diag.Entry{
			Kind: diag.KindError, File: file, Line: line,
			Function: function, Code: code, Rationale: rationale,
		})
	}
}

// LogWarning feeds a warning diagnostic into the attached sink.
func (s *Sim) LogWarning(file string, line int, function, code, rationale string) {
	if s.sink != nil {
		s.sink.Log(diag.Entry{
			Kind: diag.KindWarning, File: file, Line: line,
			Function: function, Code: code, Rationale: rationale,
		})
	}
}

// --- engine.Engine ---

func (s *Sim) Root() engine.Node {
	if s.root == nil {
		return nil
	}
	return s.root
}

// Resolve looks up a node by path. Accepts "Main/Child", "/root/Main/Child"
// and "Main" where Main is the root itself.
func (s *Sim) Resolve(path string) engine.Node {
	if s.root == nil {
		return nil
	}
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil
	}
	if segments[0] == "root" {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return nil
	}
	if segments[0] != s.root.name {
		return nil
	}
	node := s.root
	for _, seg := range segments[1:] {
		node = node.child(seg)
		if node == nil {
			return nil
		}
	}
	if !node.valid {
		return nil
	}
	return node
}

func splitPath(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func (s *Sim) PushInput(ev engine.InputEvent) {
	s.queue = append(s.queue, ev)
}

func (s *Sim) SetInputIntercept(active bool) {
	s.intercept = active
}

func (s *Sim) WarpMouse(x, y float64) {
	s.mouseX, s.mouseY = x, y
}

func (s *Sim) VibrateGamepad(device int, weak, strong float64, durationMS int) {
	s.vibrations = append(s.vibrations, Vibration{device, weak, strong, durationMS})
}

func (s *Sim) CaptureViewport() (image.Image, error) {
	if s.captureErr != nil {
		return nil, s.captureErr
	}
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			img.SetRGBA(x, y, s.background)
		}
	}
	return img, nil
}

func (s *Sim) Version() string      { return "sim-4.3" }
func (s *Sim) FPS() float64         { return s.fps }
func (s *Sim) ProcessFrames() int64 { return s.frame }
func (s *Sim) TimeScale() float64   { return s.timeScale }

func (s *Sim) CurrentScenePath() string {
	if s.root == nil {
		return ""
	}
	return "res://" + strings.ToLower(s.root.name) + ".tscn"
}

func (s *Sim) CurrentSceneName() string {
	if s.root == nil {
		return ""
	}
	return s.root.name
}

func (s *Sim) NodeCount() int {
	return countNodes(s.root)
}

func countNodes(n *Node) int {
	if n == nil || !n.valid {
		return 0
	}
	total := 1
	for _, c := range n.children {
		total += countNodes(c)
	}
	return total
}

func (s *Sim) AudioState() map[string]any {
	return map[string]any{
		"master_volume_db": 0.0,
		"buses": []any{
			map[string]any{"name": "Master", "volume_db": 0.0, "muted": false},
		},
		"playing_stream_count": 0,
	}
}

func (s *Sim) NetworkState() map[string]any {
	return map[string]any{
		"multiplayer_active": false,
		"is_server":          false,
		"peer_count":         0,
		"connection_status":  "disconnected",
	}
}

func (s *Sim) Performance() map[string]any {
	return map[string]any{
		"fps":                   s.fps,
		"frame_time_ms":         1000.0 / s.fps,
		"physics_frame_time_ms": 1000.0 / 60.0,
		"memory_static_bytes":   int64(32 << 20),
		"object_count":          s.NodeCount() * 3,
		"node_count":            s.NodeCount(),
		"draw_calls":            12,
	}
}

// Eval evaluates a constant expression (go/types universe scope). The real
// host compiles the expression against the scene root; the sim supports
// the arithmetic subset the test harness needs.
func (s *Sim) Eval(expr string) (any, error) {
	tv, err := types.Eval(token.NewFileSet(), nil, token.NoPos, expr)
	if err != nil {
		return nil, fmt.Errorf("eval parse: %w", err)
	}
	if tv.Value == nil {
		return nil, fmt.Errorf("eval: %q is not a constant expression", expr)
	}
	switch tv.Value.Kind() {
	case constant.Bool:
		return constant.BoolVal(tv.Value), nil
	case constant.Int:
		n, _ := constant.Int64Val(tv.Value)
		return n, nil
	case constant.Float:
		f, _ := constant.Float64Val(tv.Value)
		return f, nil
	case constant.String:
		return constant.StringVal(tv.Value), nil
	default:
		return tv.Value.String(), nil
	}
}

func (s *Sim) RequestQuit() {
	s.quitRequested = true
}

func (s *Sim) SetLowProcessorMode(enabled bool) {
	s.lowProcessorMode = enabled
}

func (s *Sim) SetWindowed(windowed bool) {
	s.windowed = windowed
}

func (s *Sim) CustomCommand(name string) (engine.CustomCommand, bool) {
	fn, ok := s.commands[name]
	return fn, ok
}

func (s *Sim) AttachLogSink(sink *diag.Sink) {
	s.sink = sink
}

func (s *Sim) DetachLogSink() {
	s.sink = nil
}
