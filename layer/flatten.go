package layer

// Flatten walks a nested update and produces canonical dot-path leaf keys.
//
// Only plain map[string]any values are descended into. Slices, time values,
// typed maps and every other value are opaque leaves: the engine tracks no
// per-element history inside sequences, a sequence is replaced wholesale.
// Empty nested maps contribute no leaves.
func Flatten(update map[string]any) map[string]any {
	out := make(map[string]any, len(update))
	flattenInto(out, "", update)
	return out
}

func flattenInto(out map[string]any, prefix string, node map[string]any) {
	for k, v := range node {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flattenInto(out, path, child)
			continue
		}
		out[path] = v
	}
}
