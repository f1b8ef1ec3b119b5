package sources

import (
	"encoding/json"
	"math"
	"strings"
)

// Clean drops topics that carry an error marker and strips null, blank and
// empty values at every depth. Containers left empty are dropped as well,
// so Clean(Clean(x)) equals Clean(x).
//
// transform, when non-nil, reshapes a topic before it is cleaned.
func Clean(raw map[string]any, transform func(v any) any) map[string]any {
	out := make(map[string]any, len(raw))
	for topic, v := range raw {
		if isErrorMarker(v) {
			continue
		}
		if transform != nil {
			v = transform(v)
		}
		if cleaned, ok := cleanValue(v); ok {
			out[topic] = cleaned
		}
	}
	return out
}

// isErrorMarker reports whether v is a per-topic or per-source failure
// record of the form {"error": "..."}.
func isErrorMarker(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, hasErr := m["error"]
	return hasErr
}

// cleanValue returns v with invalid parts removed and whether anything
// valid remains.
func cleanValue(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case string:
		if strings.TrimSpace(x) == "" {
			return nil, false
		}
		return x, true
	case bool:
		return x, true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, false
		}
		return x, true
	case float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return x, true
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			if cleaned, ok := cleanValue(item); ok {
				out[k] = cleaned
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	case []any:
		out := make([]any, 0, len(x))
		for _, item := range x {
			if cleaned, ok := cleanValue(item); ok {
				out = append(out, cleaned)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	default:
		// Typed slices and maps are normalised through JSON first.
		generic, ok := toGeneric(x)
		if !ok {
			return nil, false
		}
		return cleanValue(generic)
	}
}

func toGeneric(v any) (any, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

// Clone deep-copies a JSON-shaped value.
func Clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Clone(item)
		}
		return out
	default:
		return x
	}
}
