package bridge

import (
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/registry"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/types"
)

// dispatch routes one parsed envelope: parse errors answer immediately,
// then auth and tier checks, then the handler. Runs on the main thread.
func (b *Bridge) dispatch(p types.ParsedRequest) {
	if p.ErrCode != "" {
		b.respondError(p.Req.ID, &types.Error{Code: p.ErrCode, Message: p.ErrMsg})
		return
	}
	req := p.Req

	cmd, known := registry.Lookup(req.Cmd)
	if !known {
		b.respondError(req.ID, types.NewError(types.ErrUnknownCmd, "unknown command %q", req.Cmd))
		return
	}
	if !cmd.TokenExempt && req.Token != b.cfg.Token {
		b.respondError(req.ID, types.NewError(types.ErrBadToken, "missing or invalid token"))
		return
	}
	if cmd.Tier > b.cfg.Tier {
		b.respondError(req.ID, &types.Error{
			Code:    types.ErrTierDenied,
			Message: "session tier too low",
			Extra:   map[string]any{"tier_required": int(cmd.Tier)},
		})
		return
	}
	if req.Cmd == "eval" && !b.cfg.DangerEnabled {
		b.respondError(req.ID, types.NewError(types.ErrDangerDisabled, "eval requires GDRB_ENABLE_DANGER=1"))
		return
	}

	if cmd.Async {
		// wait_for resolves across frames; the scheduler owns the
		// response.
		b.addWait(req)
		return
	}

	data, herr := b.invoke(req)
	if herr != nil {
		b.respondError(req.ID, herr)
		return
	}
	b.respondOK(req.ID, data)
}

// invoke calls the handler for req.Cmd. Handlers never panic across the
// dispatcher boundary; an unexpected fault becomes internal_error.
func (b *Bridge) invoke(req types.Request) (data map[string]any, herr *types.Error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			herr = types.NewError(types.ErrInternal, "handler fault: %v", r)
		}
	}()

	args := req.Args
	switch req.Cmd {
	case "ping":
		return b.handlePing(args)
	case "auth_info":
		return b.handleAuthInfo(args)
	case "capabilities":
		return b.handleCapabilities(args)
	case "screenshot":
		return b.handleScreenshot(args)
	case "scene_tree":
		return b.handleSceneTree(args)
	case "get_property":
		return b.handleGetProperty(args)
	case "runtime_info":
		return b.handleRuntimeInfo(args)
	case "get_errors":
		return b.handleGetErrors(args)
	case "find_nodes":
		return b.handleFindNodes(args)
	case "audio_state":
		return b.handleAudioState(args)
	case "network_state":
		return b.handleNetworkState(args)
	case "grb_performance":
		return b.handlePerformance(args)
	case "click":
		return b.handleClick(args)
	case "drag":
		return b.handleDrag(args)
	case "scroll":
		return b.handleScroll(args)
	case "key":
		return b.handleKey(args)
	case "press_button":
		return b.handlePressButton(args)
	case "gesture":
		return b.handleGesture(args)
	case "gamepad":
		return b.handleGamepad(args)
	case "set_property":
		return b.handleSetProperty(args)
	case "call_method":
		return b.handleCallMethod(args)
	case "quit":
		return b.handleQuit(args)
	case "run_custom_command":
		return b.handleCustomCommand(args)
	case "eval":
		return b.handleEval(args)
	}
	// Unreachable while the registry and this switch stay in sync.
	return nil, types.NewError(types.ErrInternal, "no handler for %q", req.Cmd)
}
