package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/bridgeclient"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/validation"
)

// toolHandlers holds all MCP tool handler functions.
type toolHandlers struct {
	client *bridgeclient.Client
	logger *log.Logger
}

func newToolHandlers(client *bridgeclient.Client, logger *log.Logger) *toolHandlers {
	return &toolHandlers{client: client, logger: logger}
}

// jsonResult renders a payload map as pretty-printed JSON text.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

func (h *toolHandlers) ping(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.client.Ping(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("pong"), nil
}

func (h *toolHandlers) runtimeInfo(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := h.client.RuntimeInfo()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(info), nil
}

func (h *toolHandlers) capabilities(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	commands, err := h.client.Capabilities()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"commands": commands}), nil
}

func (h *toolHandlers) screenshot(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pngData, width, height, err := h.client.Screenshot()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	h.logger.Printf("screenshot: %dx%d (%d bytes)", width, height, len(pngData))
	return mcp.NewToolResultImage(
		fmt.Sprintf("viewport %dx%d", width, height),
		base64.StdEncoding.EncodeToString(pngData),
		"image/png",
	), nil
}

func (h *toolHandlers) sceneTree(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	maxDepth := request.GetInt("max_depth", 10)
	tree, err := h.client.SceneTree(maxDepth)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tree), nil
}

func (h *toolHandlers) findNodes(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	nodeType := request.GetString("type", "")
	group := request.GetString("group", "")
	limit := request.GetInt("limit", 50)

	result, err := h.client.FindNodes(name, nodeType, group, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result), nil
}

func (h *toolHandlers) getProperty(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	node, err := request.RequireString("node")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	property, err := request.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := validation.ValidateNodePath(node); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	value, err := h.client.GetProperty(node, property)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"value": value}), nil
}

func (h *toolHandlers) setProperty(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	node, err := request.RequireString("node")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	property, err := request.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	valueJSON, err := request.RequireString("value_json")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := validation.ValidateNodePath(node); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var value any
	if err := json.Unmarshal([]byte(valueJSON), &value); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("value_json: %v", err)), nil
	}

	h.logger.Printf("set_property: node=%q property=%q", node, property)
	if err := h.client.SetProperty(node, property, value); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (h *toolHandlers) callMethod(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	node, err := request.RequireString("node")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	method, err := request.RequireString("method")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := validation.ValidateNodePath(node); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var args []any
	if argsJSON := request.GetString("args_json", ""); argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("args_json: %v", err)), nil
		}
	}

	h.logger.Printf("call_method: node=%q method=%q", node, method)
	result, err := h.client.CallMethod(node, method, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"result": result}), nil
}

func (h *toolHandlers) getErrors(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	since := request.GetInt("since_index", 0)
	result, err := h.client.GetErrors(since)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result), nil
}

func (h *toolHandlers) click(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	x, err := request.RequireFloat("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := request.RequireFloat("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := h.client.Click(x, y); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("clicked (%v, %v)", x, y)), nil
}

func (h *toolHandlers) drag(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fromX, err := request.RequireFloat("from_x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fromY, err := request.RequireFloat("from_y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toX, err := request.RequireFloat("to_x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toY, err := request.RequireFloat("to_y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := h.client.Drag(fromX, fromY, toX, toY); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("dragged"), nil
}

func (h *toolHandlers) scroll(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	x, err := request.RequireFloat("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := request.RequireFloat("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	delta := request.GetFloat("delta", -3)

	if err := h.client.Scroll(x, y, delta); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("scrolled"), nil
}

func (h *toolHandlers) key(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if action := request.GetString("action", ""); action != "" {
		if err := h.client.KeyAction(action); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("tapped action " + action), nil
	}
	keycode := request.GetInt("keycode", -1)
	if keycode < 0 {
		return mcp.NewToolResultError("either action or keycode is required"), nil
	}
	if err := h.client.KeyCode(keycode); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("tapped keycode %d", keycode)), nil
}

func (h *toolHandlers) pressButton(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := h.client.PressButton(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("pressed " + name), nil
}

func (h *toolHandlers) gesture(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gestureType, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	centerX := request.GetFloat("center_x", 0)
	centerY := request.GetFloat("center_y", 0)

	switch gestureType {
	case "pinch":
		scale := request.GetFloat("scale", 1.0)
		err = h.client.Pinch(centerX, centerY, scale)
	case "swipe":
		dx := request.GetFloat("delta_x", 0)
		dy := request.GetFloat("delta_y", 0)
		err = h.client.Swipe(centerX, centerY, dx, dy)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown gesture type %q", gestureType)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(gestureType + " emitted"), nil
}

func (h *toolHandlers) waitFor(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	node, err := request.RequireString("node")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	property, err := request.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := validation.ValidateNodePath(node); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeoutMS := request.GetInt("timeout_ms", 5000)

	result, err := h.client.WaitFor(node, property, value, timeoutMS)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"matched":    result.Matched,
		"elapsed_ms": result.ElapsedMS,
		"last_value": result.LastValue,
	}), nil
}

func (h *toolHandlers) eval(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := request.RequireString("expr")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	h.logger.Printf("eval: %q", expr)
	result, err := h.client.Eval(expr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

func (h *toolHandlers) quit(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.client.Quit(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("quit requested"), nil
}
