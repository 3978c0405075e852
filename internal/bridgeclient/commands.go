package bridgeclient

import (
	"encoding/base64"
	"fmt"
	"time"
)

// --- Convenience methods ---

// Ping checks liveness. Works without a valid token.
func (c *Client) Ping() error {
	data, err := c.call("ping", nil)
	if err != nil {
		return err
	}
	if data["pong"] != true {
		return fmt.Errorf("unexpected ping payload: %v", data)
	}
	return nil
}

// AuthInfo returns the session's protocol, tier and danger flag.
func (c *Client) AuthInfo() (map[string]any, error) {
	return c.call("auth_info", nil)
}

// Capabilities returns the command names available at the session tier.
func (c *Client) Capabilities() ([]string, error) {
	data, err := c.call("capabilities", nil)
	if err != nil {
		return nil, err
	}
	raw, _ := data["commands"].([]any)
	commands := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			commands = append(commands, s)
		}
	}
	return commands, nil
}

// Screenshot captures the viewport, returning decoded PNG bytes.
func (c *Client) Screenshot() (pngData []byte, width, height int, err error) {
	data, err := c.call("screenshot", nil)
	if err != nil {
		return nil, 0, 0, err
	}
	encoded, _ := data["png_base64"].(string)
	pngData, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("screenshot payload: %w", err)
	}
	w, _ := data["width"].(float64)
	h, _ := data["height"].(float64)
	return pngData, int(w), int(h), nil
}

// SceneTree returns the node tree to maxDepth levels.
func (c *Client) SceneTree(maxDepth int) (map[string]any, error) {
	args := map[string]any{}
	if maxDepth > 0 {
		args["max_depth"] = maxDepth
	}
	data, err := c.call("scene_tree", args)
	if err != nil {
		return nil, err
	}
	tree, _ := data["tree"].(map[string]any)
	return tree, nil
}

// GetProperty reads one property.
func (c *Client) GetProperty(node, property string) (any, error) {
	data, err := c.call("get_property", map[string]any{"node": node, "property": property})
	if err != nil {
		return nil, err
	}
	return data["value"], nil
}

// SetProperty writes one property.
func (c *Client) SetProperty(node, property string, value any) error {
	_, err := c.call("set_property", map[string]any{
		"node": node, "property": property, "value": value,
	})
	return err
}

// CallMethod invokes a method on a node.
func (c *Client) CallMethod(node, method string, args []any) (any, error) {
	payload := map[string]any{"node": node, "method": method}
	if args != nil {
		payload["args"] = args
	}
	data, err := c.call("call_method", payload)
	if err != nil {
		return nil, err
	}
	return data["result"], nil
}

// RuntimeInfo returns engine telemetry.
func (c *Client) RuntimeInfo() (map[string]any, error) {
	return c.call("runtime_info", nil)
}

// GetErrors returns diagnostics from sinceIndex onward.
func (c *Client) GetErrors(sinceIndex int) (map[string]any, error) {
	return c.call("get_errors", map[string]any{"since_index": sinceIndex})
}

// FindNodes searches by name substring, exact type and/or group.
func (c *Client) FindNodes(name, nodeType, group string, limit int) (map[string]any, error) {
	args := map[string]any{}
	if name != "" {
		args["name"] = name
	}
	if nodeType != "" {
		args["type"] = nodeType
	}
	if group != "" {
		args["group"] = group
	}
	if limit > 0 {
		args["limit"] = limit
	}
	return c.call("find_nodes", args)
}

// AudioState returns the host audio telemetry.
func (c *Client) AudioState() (map[string]any, error) {
	return c.call("audio_state", nil)
}

// NetworkState returns the host multiplayer telemetry.
func (c *Client) NetworkState() (map[string]any, error) {
	return c.call("network_state", nil)
}

// Performance returns frame-time and allocation telemetry.
func (c *Client) Performance() (map[string]any, error) {
	return c.call("grb_performance", nil)
}

// Click presses and releases the left mouse button at (x, y). The release
// lands on the host's next frame.
func (c *Client) Click(x, y float64) error {
	_, err := c.call("click", map[string]any{"x": x, "y": y})
	return err
}

// Drag presses at from, moves to to, and releases there.
func (c *Client) Drag(fromX, fromY, toX, toY float64) error {
	_, err := c.call("drag", map[string]any{
		"from": []any{fromX, fromY},
		"to":   []any{toX, toY},
	})
	return err
}

// Scroll spins the wheel at (x, y); negative delta scrolls down.
func (c *Client) Scroll(x, y, delta float64) error {
	_, err := c.call("scroll", map[string]any{"x": x, "y": y, "delta": delta})
	return err
}

// KeyAction taps a named input action.
func (c *Client) KeyAction(action string) error {
	_, err := c.call("key", map[string]any{"action": action})
	return err
}

// KeyCode taps a physical keycode.
func (c *Client) KeyCode(keycode int) error {
	_, err := c.call("key", map[string]any{"keycode": keycode})
	return err
}

// PressButton activates a button node by name.
func (c *Client) PressButton(name string) error {
	_, err := c.call("press_button", map[string]any{"name": name})
	return err
}

// Pinch emits a pinch gesture at center with the given scale factor.
func (c *Client) Pinch(centerX, centerY, scale float64) error {
	_, err := c.call("gesture", map[string]any{
		"type":   "pinch",
		"params": map[string]any{"center": []any{centerX, centerY}, "scale": scale},
	})
	return err
}

// Swipe emits a pan gesture at center moving by (dx, dy).
func (c *Client) Swipe(centerX, centerY, dx, dy float64) error {
	_, err := c.call("gesture", map[string]any{
		"type":   "swipe",
		"params": map[string]any{"center": []any{centerX, centerY}, "delta": []any{dx, dy}},
	})
	return err
}

// GamepadButton taps a gamepad button; the host auto-releases it.
func (c *Client) GamepadButton(device, button int) error {
	_, err := c.call("gamepad", map[string]any{
		"action": "button", "device": device, "button": button,
	})
	return err
}

// GamepadAxis sets an axis position.
func (c *Client) GamepadAxis(device, axis int, value float64) error {
	_, err := c.call("gamepad", map[string]any{
		"action": "axis", "device": device, "axis": axis, "value": value,
	})
	return err
}

// WaitResult is the outcome of a WaitFor call.
type WaitResult struct {
	Matched   bool
	ElapsedMS int64
	LastValue any
}

// WaitFor blocks until node.property stringifies to value, the host-side
// timeout elapses, or the node is freed.
func (c *Client) WaitFor(node, property string, value any, timeoutMS int) (*WaitResult, error) {
	if timeoutMS <= 0 {
		timeoutMS = 5000
	}
	resp, err := c.SendTimeout("wait_for", map[string]any{
		"node": node, "property": property, "value": value, "timeout_ms": timeoutMS,
	}, time.Duration(timeoutMS)*time.Millisecond+defaultTimeout)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, resp.Err
	}
	matched, _ := resp.Data["matched"].(bool)
	elapsed, _ := resp.Data["elapsed_ms"].(float64)
	return &WaitResult{
		Matched:   matched,
		ElapsedMS: int64(elapsed),
		LastValue: resp.Data["last_value"],
	}, nil
}

// RunCustomCommand invokes a game-registered callable.
func (c *Client) RunCustomCommand(name string, args []any) (any, error) {
	payload := map[string]any{"name": name}
	if args != nil {
		payload["args"] = args
	}
	data, err := c.call("run_custom_command", payload)
	if err != nil {
		return nil, err
	}
	return data["result"], nil
}

// Eval evaluates an expression on the host. Requires tier 3 and danger
// mode.
func (c *Client) Eval(expr string) (string, error) {
	data, err := c.call("eval", map[string]any{"expr": expr})
	if err != nil {
		return "", err
	}
	result, _ := data["result"].(string)
	return result, nil
}

// Quit asks the host to terminate.
func (c *Client) Quit() error {
	_, err := c.call("quit", nil)
	return err
}
