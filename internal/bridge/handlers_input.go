package bridge

import (
	"math"
	"strings"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/engine"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/types"
)

// pushPointer injects a pointer-positioned event, warping the OS cursor
// first when the session runs in os input mode.
func (b *Bridge) pushPointer(ev engine.InputEvent) {
	if b.cfg.InputMode == engine.ModeOS {
		b.eng.WarpMouse(ev.X, ev.Y)
	}
	ev.Synthetic = true
	b.eng.PushInput(ev)
}

func (b *Bridge) push(ev engine.InputEvent) {
	ev.Synthetic = true
	b.eng.PushInput(ev)
}

func (b *Bridge) handleClick(args map[string]any) (map[string]any, *types.Error) {
	x, okX := argFloat(args, "x")
	y, okY := argFloat(args, "y")
	if !okX || !okY {
		return nil, types.NewError(types.ErrBadArgs, "x and y are required")
	}

	b.pushPointer(engine.InputEvent{Kind: engine.KindMouseMotion, X: x, Y: y})
	b.pushPointer(engine.InputEvent{
		Kind: engine.KindMouseButton, X: x, Y: y,
		Button: engine.MouseButtonLeft, Pressed: true,
	})
	// The matching release goes out on the next frame; some host widgets
	// ignore a press and release delivered in the same tick.
	b.scheduleRelease(x, y, engine.MouseButtonLeft)
	return map[string]any{}, nil
}

func (b *Bridge) handleDrag(args map[string]any) (map[string]any, *types.Error) {
	fromX, fromY, okFrom := argVec2(args, "from")
	toX, toY, okTo := argVec2(args, "to")
	if !okFrom || !okTo {
		return nil, types.NewError(types.ErrBadArgs, "from and to must be [x, y] arrays")
	}

	b.pushPointer(engine.InputEvent{Kind: engine.KindMouseMotion, X: fromX, Y: fromY})
	b.pushPointer(engine.InputEvent{
		Kind: engine.KindMouseButton, X: fromX, Y: fromY,
		Button: engine.MouseButtonLeft, Pressed: true,
	})
	b.pushPointer(engine.InputEvent{
		Kind: engine.KindMouseMotion, X: toX, Y: toY,
		RelX: toX - fromX, RelY: toY - fromY,
	})
	b.scheduleRelease(toX, toY, engine.MouseButtonLeft)
	return map[string]any{}, nil
}

func (b *Bridge) handleScroll(args map[string]any) (map[string]any, *types.Error) {
	x, okX := argFloat(args, "x")
	y, okY := argFloat(args, "y")
	if !okX || !okY {
		return nil, types.NewError(types.ErrBadArgs, "x and y are required")
	}
	delta, ok := argFloat(args, "delta")
	if !ok {
		delta = -3
	}

	button := engine.MouseButtonWheelUp
	if delta < 0 {
		button = engine.MouseButtonWheelDown
	}
	factor := math.Abs(delta)
	b.pushPointer(engine.InputEvent{
		Kind: engine.KindMouseButton, X: x, Y: y,
		Button: button, Pressed: true, Factor: factor,
	})
	b.pushPointer(engine.InputEvent{
		Kind: engine.KindMouseButton, X: x, Y: y,
		Button: button, Pressed: false, Factor: factor,
	})
	return map[string]any{}, nil
}

func (b *Bridge) handleKey(args map[string]any) (map[string]any, *types.Error) {
	action, _ := argString(args, "action")
	if action != "" {
		b.push(engine.InputEvent{Kind: engine.KindAction, Action: action, Pressed: true})
		b.push(engine.InputEvent{Kind: engine.KindAction, Action: action, Pressed: false})
		return map[string]any{}, nil
	}
	keycode := argInt(args, "keycode", -1)
	if keycode < 0 {
		return nil, types.NewError(types.ErrBadArgs, "either action or keycode is required")
	}
	b.push(engine.InputEvent{Kind: engine.KindKey, Keycode: keycode, Pressed: true})
	b.push(engine.InputEvent{Kind: engine.KindKey, Keycode: keycode, Pressed: false})
	return map[string]any{}, nil
}

func (b *Bridge) handlePressButton(args map[string]any) (map[string]any, *types.Error) {
	name, ok := argString(args, "name")
	if !ok || name == "" {
		return nil, types.NewError(types.ErrBadArgs, "name is required")
	}
	root := b.eng.Root()
	if root == nil {
		return nil, types.NewError(types.ErrNotFound, "no scene root")
	}
	node := findButton(root, name)
	if node == nil {
		return nil, types.NewError(types.ErrNotFound, "button %q not found", name)
	}
	pressable, ok := node.(engine.Pressable)
	if !ok {
		return nil, types.NewError(types.ErrInternal, "node %q is not pressable", name)
	}
	// Invoke the registered listeners directly instead of emitting the
	// press signal; signal dispatch misses under some viewport setups.
	pressable.Press()
	return map[string]any{}, nil
}

func findButton(n engine.Node, name string) engine.Node {
	if strings.Contains(n.Type(), "Button") && strings.EqualFold(n.Name(), name) {
		return n
	}
	for _, c := range n.Children() {
		if found := findButton(c, name); found != nil {
			return found
		}
	}
	return nil
}

func (b *Bridge) handleGesture(args map[string]any) (map[string]any, *types.Error) {
	gestureType, ok := argString(args, "type")
	if !ok {
		return nil, types.NewError(types.ErrBadArgs, "type is required")
	}
	params := argMap(args, "params")

	switch gestureType {
	case "pinch":
		x, y, okCenter := argVec2(params, "center")
		scale, okScale := argFloat(params, "scale")
		if !okCenter || !okScale {
			return nil, types.NewError(types.ErrBadArgs, "pinch requires center [x, y] and scale")
		}
		b.pushPointer(engine.InputEvent{Kind: engine.KindPinchGesture, X: x, Y: y, Scale: scale})
	case "swipe":
		x, y, okCenter := argVec2(params, "center")
		dx, dy, okDelta := argVec2(params, "delta")
		if !okCenter || !okDelta {
			return nil, types.NewError(types.ErrBadArgs, "swipe requires center [x, y] and delta [dx, dy]")
		}
		b.pushPointer(engine.InputEvent{Kind: engine.KindPanGesture, X: x, Y: y, RelX: dx, RelY: dy})
	default:
		return nil, types.NewError(types.ErrBadArgs, "unknown gesture type %q", gestureType)
	}
	return map[string]any{}, nil
}

func (b *Bridge) handleGamepad(args map[string]any) (map[string]any, *types.Error) {
	action, ok := argString(args, "action")
	if !ok {
		return nil, types.NewError(types.ErrBadArgs, "action is required")
	}
	device := argInt(args, "device", 0)

	switch action {
	case "button":
		button := argInt(args, "button", -1)
		if button < 0 {
			return nil, types.NewError(types.ErrBadArgs, "button index is required")
		}
		b.push(engine.InputEvent{Kind: engine.KindJoyButton, Device: device, Button: button, Pressed: true})
		b.schedulePadRelease(device, button)
	case "axis":
		axis := argInt(args, "axis", -1)
		value, okValue := argFloat(args, "value")
		if axis < 0 || !okValue {
			return nil, types.NewError(types.ErrBadArgs, "axis and value are required")
		}
		b.push(engine.InputEvent{Kind: engine.KindJoyAxis, Device: device, Axis: axis, AxisValue: value})
	case "vibrate":
		weak, _ := argFloat(args, "weak_magnitude")
		strong, _ := argFloat(args, "strong_magnitude")
		duration := argInt(args, "duration_ms", 500)
		b.eng.VibrateGamepad(device, weak, strong, duration)
	default:
		return nil, types.NewError(types.ErrBadArgs, "unknown gamepad action %q", action)
	}
	return map[string]any{}, nil
}
