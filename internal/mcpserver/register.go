package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func (app *MCPServerApp) registerTools() {
	h := newToolHandlers(app.session.Client(), app.logger)

	// gdrb_ping
	app.server.AddTool(mcp.NewTool("gdrb_ping",
		mcp.WithDescription(`Check that the game's debug bridge is alive.

Returns:
    "pong" when the bridge answers`),
	), h.ping)

	// gdrb_runtime_info
	app.server.AddTool(mcp.NewTool("gdrb_runtime_info",
		mcp.WithDescription(`Get engine telemetry: version, fps, frame count, time scale,
current scene, node count, input mode, and error/warning totals.

Returns:
    JSON object with the telemetry fields`),
	), h.runtimeInfo)

	// gdrb_capabilities
	app.server.AddTool(mcp.NewTool("gdrb_capabilities",
		mcp.WithDescription(`List the bridge commands available at this session's capability tier.

Returns:
    JSON object with the sorted command names`),
	), h.capabilities)

	// gdrb_screenshot
	app.server.AddTool(mcp.NewTool("gdrb_screenshot",
		mcp.WithDescription(`Capture the game viewport as a PNG image.

Returns:
    The screenshot as an image content block`),
	), h.screenshot)

	// gdrb_scene_tree
	app.server.AddTool(mcp.NewTool("gdrb_scene_tree",
		mcp.WithDescription(`Get the scene tree as nested {name, type, children} objects.

Args:
    max_depth: Depth limit; children below it come back empty (default: 10)

Returns:
    JSON tree rooted at the current scene`),
		mcp.WithNumber("max_depth",
			mcp.Description("Depth limit; children below it come back empty (default: 10)"),
		),
	), h.sceneTree)

	// gdrb_find_nodes
	app.server.AddTool(mcp.NewTool("gdrb_find_nodes",
		mcp.WithDescription(`Search the scene for nodes. At least one predicate is required.

Args:
    name: Case-insensitive substring of the node name, or "*" for all
    type: Exact class name (e.g. "Button", "CharacterBody2D")
    group: Node group membership
    limit: Maximum matches to return (default: 50)

Returns:
    JSON object with matches [{name, type, path, groups}] and count`),
		mcp.WithString("name",
			mcp.Description("Case-insensitive substring of the node name, or \"*\" for all"),
		),
		mcp.WithString("type",
			mcp.Description("Exact class name (e.g. \"Button\", \"CharacterBody2D\")"),
		),
		mcp.WithString("group",
			mcp.Description("Node group membership"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum matches to return (default: 50)"),
		),
	), h.findNodes)

	// gdrb_get_property
	app.server.AddTool(mcp.NewTool("gdrb_get_property",
		mcp.WithDescription(`Read a property from a scene node.

Args:
    node: Node path (e.g. "Main/Player")
    property: Property name (e.g. "position")

Returns:
    JSON object with the marshalled value`),
		mcp.WithString("node",
			mcp.Required(),
			mcp.Description("Node path (e.g. \"Main/Player\")"),
		),
		mcp.WithString("property",
			mcp.Required(),
			mcp.Description("Property name (e.g. \"position\")"),
		),
	), h.getProperty)

	// gdrb_set_property
	app.server.AddTool(mcp.NewTool("gdrb_set_property",
		mcp.WithDescription(`Write a property on a scene node. Requires tier 2 (Control).

Args:
    node: Node path (e.g. "Main/Player")
    property: Property name
    value_json: New value as a JSON literal (e.g. "42", "\"done\"", "[1, 2]")

Returns:
    Confirmation`),
		mcp.WithString("node",
			mcp.Required(),
			mcp.Description("Node path (e.g. \"Main/Player\")"),
		),
		mcp.WithString("property",
			mcp.Required(),
			mcp.Description("Property name"),
		),
		mcp.WithString("value_json",
			mcp.Required(),
			mcp.Description("New value as a JSON literal (e.g. \"42\", \"\\\"done\\\"\", \"[1, 2]\")"),
		),
	), h.setProperty)

	// gdrb_call_method
	app.server.AddTool(mcp.NewTool("gdrb_call_method",
		mcp.WithDescription(`Invoke a method on a scene node. Requires tier 2 (Control).

Args:
    node: Node path
    method: Method name
    args_json: Arguments as a JSON array (default: none)

Returns:
    JSON object with the marshalled result`),
		mcp.WithString("node",
			mcp.Required(),
			mcp.Description("Node path"),
		),
		mcp.WithString("method",
			mcp.Required(),
			mcp.Description("Method name"),
		),
		mcp.WithString("args_json",
			mcp.Description("Arguments as a JSON array (default: none)"),
		),
	), h.callMethod)

	// gdrb_get_errors
	app.server.AddTool(mcp.NewTool("gdrb_get_errors",
		mcp.WithDescription(`Poll engine diagnostics (errors, warnings, script/shader errors).

Args:
    since_index: Only entries at or after this cursor (default: 0 for all)

Returns:
    JSON object with errors, next_index cursor, and running totals`),
		mcp.WithNumber("since_index",
			mcp.Description("Only entries at or after this cursor (default: 0 for all)"),
		),
	), h.getErrors)

	// gdrb_click
	app.server.AddTool(mcp.NewTool("gdrb_click",
		mcp.WithDescription(`Click the left mouse button at viewport coordinates. The release
is injected on the game's next frame.

Args:
    x: Viewport x coordinate
    y: Viewport y coordinate

Returns:
    Confirmation`),
		mcp.WithNumber("x",
			mcp.Required(),
			mcp.Description("Viewport x coordinate"),
		),
		mcp.WithNumber("y",
			mcp.Required(),
			mcp.Description("Viewport y coordinate"),
		),
	), h.click)

	// gdrb_drag
	app.server.AddTool(mcp.NewTool("gdrb_drag",
		mcp.WithDescription(`Press at one point, move to another, release there.

Args:
    from_x, from_y: Press position
    to_x, to_y: Release position

Returns:
    Confirmation`),
		mcp.WithNumber("from_x", mcp.Required(), mcp.Description("Press x")),
		mcp.WithNumber("from_y", mcp.Required(), mcp.Description("Press y")),
		mcp.WithNumber("to_x", mcp.Required(), mcp.Description("Release x")),
		mcp.WithNumber("to_y", mcp.Required(), mcp.Description("Release y")),
	), h.drag)

	// gdrb_scroll
	app.server.AddTool(mcp.NewTool("gdrb_scroll",
		mcp.WithDescription(`Spin the mouse wheel at viewport coordinates.

Args:
    x, y: Wheel position
    delta: Negative scrolls down, positive up; magnitude is the wheel factor (default: -3)

Returns:
    Confirmation`),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Wheel x")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Wheel y")),
		mcp.WithNumber("delta",
			mcp.Description("Negative scrolls down, positive up (default: -3)"),
		),
	), h.scroll)

	// gdrb_key
	app.server.AddTool(mcp.NewTool("gdrb_key",
		mcp.WithDescription(`Tap a named input action or a physical keycode.

Args:
    action: Input action name (e.g. "jump"); takes precedence over keycode
    keycode: Physical keycode (e.g. 32 for space)

Returns:
    Confirmation`),
		mcp.WithString("action",
			mcp.Description("Input action name (e.g. \"jump\"); takes precedence over keycode"),
		),
		mcp.WithNumber("keycode",
			mcp.Description("Physical keycode (e.g. 32 for space)"),
		),
	), h.key)

	// gdrb_press_button
	app.server.AddTool(mcp.NewTool("gdrb_press_button",
		mcp.WithDescription(`Activate a Button node by name, bypassing positional input.

Args:
    name: Button node name (case-insensitive)

Returns:
    Confirmation`),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Button node name (case-insensitive)"),
		),
	), h.pressButton)

	// gdrb_gesture
	app.server.AddTool(mcp.NewTool("gdrb_gesture",
		mcp.WithDescription(`Emit a touch gesture.

Args:
    type: "pinch" or "swipe"
    center_x, center_y: Gesture center
    scale: Pinch scale factor (pinch only)
    delta_x, delta_y: Swipe delta (swipe only)

Returns:
    Confirmation`),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("\"pinch\" or \"swipe\""),
		),
		mcp.WithNumber("center_x", mcp.Description("Gesture center x")),
		mcp.WithNumber("center_y", mcp.Description("Gesture center y")),
		mcp.WithNumber("scale", mcp.Description("Pinch scale factor")),
		mcp.WithNumber("delta_x", mcp.Description("Swipe delta x")),
		mcp.WithNumber("delta_y", mcp.Description("Swipe delta y")),
	), h.gesture)

	// gdrb_wait_for
	app.server.AddTool(mcp.NewTool("gdrb_wait_for",
		mcp.WithDescription(`Wait until a node property reaches a value. The comparison uses the
host's string form of the value.

Args:
    node: Node path
    property: Property to watch
    value: Expected value (compared as strings)
    timeout_ms: Give up after this long (default: 5000)

Returns:
    JSON object with matched, elapsed_ms, and last_value on timeout`),
		mcp.WithString("node",
			mcp.Required(),
			mcp.Description("Node path"),
		),
		mcp.WithString("property",
			mcp.Required(),
			mcp.Description("Property to watch"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Expected value (compared as strings)"),
		),
		mcp.WithNumber("timeout_ms",
			mcp.Description("Give up after this long (default: 5000)"),
		),
	), h.waitFor)

	// gdrb_eval
	app.server.AddTool(mcp.NewTool("gdrb_eval",
		mcp.WithDescription(`Evaluate an expression on the host. Requires tier 3 and
GDRB_ENABLE_DANGER=1 on the host. Use with caution!

Args:
    expr: Expression source

Returns:
    The result as a string`),
		mcp.WithString("expr",
			mcp.Required(),
			mcp.Description("Expression source"),
		),
	), h.eval)

	// gdrb_quit
	app.server.AddTool(mcp.NewTool("gdrb_quit",
		mcp.WithDescription(`Ask the game to terminate. Requires tier 2 (Control).

Returns:
    Confirmation`),
	), h.quit)
}
