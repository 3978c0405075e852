package engine

import "fmt"

// MarshalValue converts an engine value into a JSON-serializable form.
// Primitives pass through; slices and string-keyed maps recurse
// element-wise; map keys are coerced to string; anything else degrades to
// its string form. The same rule backs get_property, call_method results,
// find_nodes payloads and wait_for's last_value.
func MarshalValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool, string:
		return val
	case int:
		return val
	case int32:
		return int(val)
	case int64:
		return val
	case float32:
		return float64(val)
	case float64:
		return val
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = MarshalValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = MarshalValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = MarshalValue(item)
		}
		return out
	default:
		return fmt.Sprint(val)
	}
}

// StringifyValue is the documented stringifier used for wait_for equality:
// fmt.Sprint of the marshalled value. Engine-native compound values lack a
// stable JSON equivalence, so string comparison is the wire contract;
// clients must know this form.
func StringifyValue(v any) string {
	return fmt.Sprint(MarshalValue(v))
}
