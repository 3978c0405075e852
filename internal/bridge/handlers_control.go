package bridge

import (
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/engine"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/types"
)

func (b *Bridge) handleSetProperty(args map[string]any) (map[string]any, *types.Error) {
	path, okNode := argString(args, "node")
	property, okProp := argString(args, "property")
	value, okValue := args["value"]
	if !okNode || !okProp || !okValue {
		return nil, types.NewError(types.ErrBadArgs, "node, property and value are required")
	}
	node := b.eng.Resolve(path)
	if node == nil {
		return nil, types.NewError(types.ErrNotFound, "node %q not found", path)
	}
	if !node.Set(property, value) {
		return nil, types.NewError(types.ErrNotFound, "property %q not found on %q", property, path)
	}
	return map[string]any{}, nil
}

func (b *Bridge) handleCallMethod(args map[string]any) (map[string]any, *types.Error) {
	path, okNode := argString(args, "node")
	method, okMethod := argString(args, "method")
	if !okNode || !okMethod {
		return nil, types.NewError(types.ErrBadArgs, "node and method are required")
	}
	node := b.eng.Resolve(path)
	if node == nil {
		return nil, types.NewError(types.ErrNotFound, "node %q not found", path)
	}
	result, exists, err := node.Call(method, argList(args, "args"))
	if !exists {
		return nil, types.NewError(types.ErrNotFound, "method %q not found on %q", method, path)
	}
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "call %s.%s: %v", path, method, err)
	}
	return map[string]any{"result": engine.MarshalValue(result)}, nil
}

func (b *Bridge) handleQuit(map[string]any) (map[string]any, *types.Error) {
	// Termination is requested on the next tick so this response reaches
	// the socket first.
	b.pendingQuit = true
	return map[string]any{}, nil
}

func (b *Bridge) handleCustomCommand(args map[string]any) (map[string]any, *types.Error) {
	name, ok := argString(args, "name")
	if !ok || name == "" {
		return nil, types.NewError(types.ErrBadArgs, "name is required")
	}
	fn, exists := b.eng.CustomCommand(name)
	if !exists {
		return nil, types.NewError(types.ErrNotFound, "custom command %q not registered", name)
	}
	result, err := fn(argList(args, "args"))
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "custom command %q: %v", name, err)
	}
	return map[string]any{"result": engine.MarshalValue(result)}, nil
}

func (b *Bridge) handleEval(args map[string]any) (map[string]any, *types.Error) {
	expr, ok := argString(args, "expr")
	if !ok || expr == "" {
		return nil, types.NewError(types.ErrBadArgs, "expr is required")
	}
	result, err := b.eng.Eval(expr)
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "eval: %v", err)
	}
	return map[string]any{"result": engine.StringifyValue(result)}, nil
}
