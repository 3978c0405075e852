package bridge

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/engine"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/registry"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/types"
)

func (b *Bridge) handlePing(map[string]any) (map[string]any, *types.Error) {
	return map[string]any{"pong": true}, nil
}

func (b *Bridge) handleAuthInfo(map[string]any) (map[string]any, *types.Error) {
	return map[string]any{
		"proto":          types.Proto,
		"tier":           int(b.cfg.Tier),
		"danger_enabled": b.cfg.DangerEnabled,
	}, nil
}

func (b *Bridge) handleCapabilities(map[string]any) (map[string]any, *types.Error) {
	return map[string]any{
		"tier":     int(b.cfg.Tier),
		"commands": registry.CommandsForTier(b.cfg.Tier),
	}, nil
}

func (b *Bridge) handleScreenshot(map[string]any) (map[string]any, *types.Error) {
	img, err := b.eng.CaptureViewport()
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "viewport capture: %v", err)
	}
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return nil, types.NewError(types.ErrInternal, "png encode: %v", err)
	}
	bounds := img.Bounds()
	return map[string]any{
		"width":      bounds.Dx(),
		"height":     bounds.Dy(),
		"png_base64": base64.StdEncoding.EncodeToString(encoded.Bytes()),
	}, nil
}

func (b *Bridge) handleSceneTree(args map[string]any) (map[string]any, *types.Error) {
	root := b.eng.Root()
	if root == nil {
		return nil, types.NewError(types.ErrNotFound, "no scene root")
	}
	maxDepth := argInt(args, "max_depth", 10)
	return map[string]any{"tree": treeNode(root, 0, maxDepth)}, nil
}

func treeNode(n engine.Node, depth, maxDepth int) map[string]any {
	children := []any{}
	if depth < maxDepth {
		for _, c := range n.Children() {
			children = append(children, treeNode(c, depth+1, maxDepth))
		}
	}
	return map[string]any{
		"name":     n.Name(),
		"type":     n.Type(),
		"children": children,
	}
}

func (b *Bridge) handleGetProperty(args map[string]any) (map[string]any, *types.Error) {
	path, okNode := argString(args, "node")
	property, okProp := argString(args, "property")
	if !okNode || !okProp {
		return nil, types.NewError(types.ErrBadArgs, "node and property are required")
	}
	node := b.eng.Resolve(path)
	if node == nil {
		return nil, types.NewError(types.ErrNotFound, "node %q not found", path)
	}
	value, ok := node.Get(property)
	if !ok {
		return nil, types.NewError(types.ErrNotFound, "property %q not found on %q", property, path)
	}
	return map[string]any{"value": engine.MarshalValue(value)}, nil
}

func (b *Bridge) handleRuntimeInfo(map[string]any) (map[string]any, *types.Error) {
	errCount, warnCount := b.sink.Counts()
	return map[string]any{
		"engine_version":     b.eng.Version(),
		"fps":                b.eng.FPS(),
		"process_frames":     b.eng.ProcessFrames(),
		"time_scale":         b.eng.TimeScale(),
		"current_scene":      b.eng.CurrentScenePath(),
		"current_scene_name": b.eng.CurrentSceneName(),
		"node_count":         b.eng.NodeCount(),
		"input_mode":         string(b.cfg.InputMode),
		"error_count":        errCount,
		"warning_count":      warnCount,
	}, nil
}

func (b *Bridge) handleGetErrors(args map[string]any) (map[string]any, *types.Error) {
	since := argInt(args, "since_index", 0)
	entries, next := b.sink.Since(since)
	errCount, warnCount := b.sink.Counts()

	list := make([]any, 0, len(entries))
	for _, e := range entries {
		list = append(list, map[string]any{
			"index":        e.Index,
			"kind":         string(e.Kind),
			"file":         e.File,
			"line":         e.Line,
			"function":     e.Function,
			"code":         e.Code,
			"rationale":    e.Rationale,
			"timestamp_ms": e.TimestampMS,
		})
	}
	return map[string]any{
		"errors":        list,
		"next_index":    next,
		"error_count":   errCount,
		"warning_count": warnCount,
	}, nil
}

func (b *Bridge) handleFindNodes(args map[string]any) (map[string]any, *types.Error) {
	name, hasName := argString(args, "name")
	nodeType, hasType := argString(args, "type")
	group, hasGroup := argString(args, "group")
	if (!hasName || name == "") && (!hasType || nodeType == "") && (!hasGroup || group == "") {
		return nil, types.NewError(types.ErrBadArgs, "at least one of name, type, group is required")
	}
	limit := argInt(args, "limit", 50)

	root := b.eng.Root()
	if root == nil {
		return nil, types.NewError(types.ErrNotFound, "no scene root")
	}

	matches := []any{}
	// Breadth-first so shallow matches win the truncation race.
	queue := []engine.Node{root}
	for len(queue) > 0 && len(matches) < limit {
		n := queue[0]
		queue = queue[1:]
		if matchNode(n, name, nodeType, group) {
			matches = append(matches, map[string]any{
				"name":   n.Name(),
				"type":   n.Type(),
				"path":   n.Path(),
				"groups": groupList(n),
			})
		}
		queue = append(queue, n.Children()...)
	}
	return map[string]any{"matches": matches, "count": len(matches)}, nil
}

func matchNode(n engine.Node, name, nodeType, group string) bool {
	if name != "" && name != "*" &&
		!strings.Contains(strings.ToLower(n.Name()), strings.ToLower(name)) {
		return false
	}
	if nodeType != "" && n.Type() != nodeType {
		return false
	}
	if group != "" {
		found := false
		for _, g := range n.Groups() {
			if g == group {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func groupList(n engine.Node) []any {
	groups := n.Groups()
	out := make([]any, len(groups))
	for i, g := range groups {
		out[i] = g
	}
	return out
}

func (b *Bridge) handleAudioState(map[string]any) (map[string]any, *types.Error) {
	return marshalMap(b.eng.AudioState()), nil
}

func (b *Bridge) handleNetworkState(map[string]any) (map[string]any, *types.Error) {
	return marshalMap(b.eng.NetworkState()), nil
}

func (b *Bridge) handlePerformance(map[string]any) (map[string]any, *types.Error) {
	return marshalMap(b.eng.Performance()), nil
}

func marshalMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = engine.MarshalValue(v)
	}
	return out
}
