package staging

import "sort"

// Fields is a section's data as a JSON-shaped object.
type Fields map[string]any

// Clone deep-copies JSON-shaped values (maps, slices, scalars). Other values
// are copied by assignment. A nil receiver yields an empty Fields; nested nil
// maps and slices stay nil.
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

// Keys returns the field names in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		return map[string]any(Fields(t).Clone())
	case Fields:
		if t == nil {
			return t
		}
		return t.Clone()
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]any:
		if t == nil {
			return t
		}
		out := make([]map[string]any, len(t))
		for i, item := range t {
			out[i], _ = cloneValue(item).(map[string]any)
		}
		return out
	default:
		return v
	}
}
