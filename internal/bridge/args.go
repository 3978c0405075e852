package bridge

// Argument extraction helpers. JSON numbers arrive as float64; these
// accept the integer forms too so tests can build args maps directly.

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func argFloat(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func argInt(args map[string]any, key string, def int) int {
	if f, ok := argFloat(args, key); ok {
		return int(f)
	}
	return def
}

// argVec2 reads a two-element numeric array.
func argVec2(args map[string]any, key string) (x, y float64, ok bool) {
	list, isList := args[key].([]any)
	if !isList || len(list) != 2 {
		return 0, 0, false
	}
	x, okX := asFloat(list[0])
	y, okY := asFloat(list[1])
	return x, y, okX && okY
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// argList reads an array argument, defaulting to empty.
func argList(args map[string]any, key string) []any {
	if list, ok := args[key].([]any); ok {
		return list
	}
	return nil
}

// argMap reads a nested mapping argument.
func argMap(args map[string]any, key string) map[string]any {
	if m, ok := args[key].(map[string]any); ok {
		return m
	}
	return nil
}
