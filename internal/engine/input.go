package engine

// InputKind discriminates injected input events.
type InputKind string

const (
	KindMouseMotion  InputKind = "mouse_motion"
	KindMouseButton  InputKind = "mouse_button"
	KindKey          InputKind = "key"
	KindAction       InputKind = "action"
	KindPinchGesture InputKind = "pinch"
	KindPanGesture   InputKind = "pan"
	KindJoyButton    InputKind = "joy_button"
	KindJoyAxis      InputKind = "joy_axis"
)

// Mouse button indices, matching the host's numbering.
const (
	MouseButtonLeft      = 1
	MouseButtonRight     = 2
	MouseButtonMiddle    = 3
	MouseButtonWheelUp   = 4
	MouseButtonWheelDown = 5
)

// InputEvent is one injected event. Synthetic marks events originated by
// the bridge; while synthetic input mode is active, the viewport drops any
// event without the mark so real-device input cannot reach game nodes.
type InputEvent struct {
	Kind InputKind

	// Position for pointer events; center for gestures.
	X, Y float64
	// Relative motion (mouse_motion during drag, pan gesture delta).
	RelX, RelY float64

	// Mouse/gamepad button index and state.
	Button  int
	Pressed bool
	// Wheel magnitude for scroll events.
	Factor float64

	// Key events.
	Keycode int
	// Action events.
	Action string

	// Pinch gesture scale factor.
	Scale float64

	// Gamepad.
	Device    int
	Axis      int
	AxisValue float64

	Synthetic bool
}
