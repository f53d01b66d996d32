package blueprint

// Flatten merges nested sections into a single key -> input mapping.
// Sections contribute no prefix; when two sections declare the same key the
// one visited last in document order wins.
func Flatten(inputs Inputs) map[string]*Input {
	flat := make(map[string]*Input)
	flattenInto(flat, inputs)
	return flat
}

func flattenInto(flat map[string]*Input, inputs Inputs) {
	for _, node := range inputs {
		if node.IsSection() {
			flattenInto(flat, node.Section.Input)
			continue
		}
		flat[node.Key] = node.Input
	}
}

// Keys returns the leaf input keys in document order, without duplicates
func Keys(inputs Inputs) []string {
	seen := make(map[string]bool)
	var keys []string
	var walk func(Inputs)
	walk = func(nodes Inputs) {
		for _, node := range nodes {
			if node.IsSection() {
				walk(node.Section.Input)
				continue
			}
			if !seen[node.Key] {
				seen[node.Key] = true
				keys = append(keys, node.Key)
			}
		}
	}
	walk(inputs)
	return keys
}
