package packing

import (
	"github.com/ajitpratap0/jonx/pkg/column"
)

// BuildMapping assigns indices to the distinct non-null values of c in order
// of first appearance. It returns nil for columns that are not mapped.
func BuildMapping(c *column.Column) map[string]int {
	if !c.Type.NeedsMapping() {
		return nil
	}
	mapping := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		if _, ok := mapping[c.Strings[i]]; !ok {
			mapping[c.Strings[i]] = len(mapping)
		}
	}
	return mapping
}

// MappingValues returns the mapped values ordered by index. It reports false
// when the indices are not exactly 0..len(mapping)-1.
func MappingValues(mapping map[string]int) ([]string, bool) {
	out := make([]string, len(mapping))
	seen := make([]bool, len(mapping))
	for v, idx := range mapping {
		if idx < 0 || idx >= len(out) || seen[idx] {
			return nil, false
		}
		out[idx] = v
		seen[idx] = true
	}
	return out, true
}
