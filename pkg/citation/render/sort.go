package render

import (
	"fmt"
	"sort"
	"strings"

	"ai-writing-be/pkg/citation/csl"
)

// sortItems orders a copy of items by the style's bibliography sort keys.
// Items with an empty key sort after items that have one.
func sortItems(s *csl.Style, items []csl.Item) []csl.Item {
	ordered := make([]csl.Item, len(items))
	copy(ordered, items)
	if len(s.Sort) == 0 || len(ordered) < 2 {
		return ordered
	}

	keys := make([][]string, len(ordered))
	for i, it := range ordered {
		keys[i] = sortKeys(s, it)
	}
	idx := make([]int, len(ordered))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		for k, spec := range s.Sort {
			x, y := ka[k], kb[k]
			if x == y {
				continue
			}
			if x == "" {
				return false
			}
			if y == "" {
				return true
			}
			if spec.Descending {
				return x > y
			}
			return x < y
		}
		return false
	})

	out := make([]csl.Item, len(ordered))
	for i, j := range idx {
		out[i] = ordered[j]
	}
	return out
}

func sortKeys(s *csl.Style, it csl.Item) []string {
	keys := make([]string, len(s.Sort))
	for i, k := range s.Sort {
		if k.Macro != "" {
			e := newEvaluator(s, it, 0)
			keys[i] = strings.ToLower(cleanup(e.sequence(s.Macros[k.Macro].Children, "").text))
			continue
		}
		keys[i] = variableSortKey(it, k.Variable)
	}
	return keys
}

func variableSortKey(it csl.Item, v string) string {
	switch {
	case csl.IsNameVariable(v):
		names := it.Names(v)
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = strings.ToLower(n.Family + " " + n.Given + " " + n.Literal)
		}
		return strings.Join(parts, "|")
	case csl.IsDateVariable(v):
		d := it.Date(v)
		if d == nil || d.Year == 0 {
			return ""
		}
		return fmt.Sprintf("%08d%02d%02d", d.Year, d.Month, d.Day)
	}
	val := it.Str(v)
	if isNumeric(val) {
		n := firstPage(val)
		if len(n) < 12 {
			n = strings.Repeat("0", 12-len(n)) + n
		}
		return n
	}
	return strings.ToLower(val)
}
