// Package csl models CSL-JSON bibliographic items and CSL XML style documents.
package csl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Metadata is an opaque CSL-JSON payload exactly as returned upstream.
type Metadata []byte

func (m Metadata) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("null"), nil
	}
	return m, nil
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	if m == nil {
		return errors.New("csl.Metadata: UnmarshalJSON on nil pointer")
	}
	*m = append((*m)[0:0], data...)
	return nil
}

// IsEmpty reports whether the payload is absent or JSON null.
func (m Metadata) IsEmpty() bool {
	trimmed := bytes.TrimSpace(m)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Items decodes the payload into one or more items without modifying it.
func (m Metadata) Items() ([]Item, error) {
	if m.IsEmpty() {
		return nil, errors.New("metadata is empty")
	}
	return decodeItems(m)
}

func decodeItems(data []byte) ([]Item, error) {
	trimmed := bytes.TrimSpace(data)
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []Item
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode CSL-JSON array: %w", err)
		}
		if len(items) == 0 {
			return nil, errors.New("CSL-JSON array is empty")
		}
		return items, nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		var item Item
		if err := dec.Decode(&item); err != nil {
			return nil, fmt.Errorf("decode CSL-JSON object: %w", err)
		}
		return []Item{item}, nil
	default:
		return nil, errors.New("CSL-JSON must be an object or an array")
	}
}

// Item is a single CSL-JSON record. Values are kept as decoded so that
// registry-flavoured payloads (list titles, string numbers) are tolerated.
type Item map[string]any

var crossrefTypes = map[string]string{
	"journal-article":     "article-journal",
	"book-chapter":        "chapter",
	"book-section":        "chapter",
	"book-part":           "chapter",
	"proceedings-article": "paper-conference",
	"posted-content":      "article",
	"dissertation":        "thesis",
	"monograph":           "book",
	"edited-book":         "book",
	"reference-book":      "book",
	"reference-entry":     "entry",
	"journal-issue":       "periodical",
	"component":           "article",
}

// Type returns the CSL item type, mapping registry work types onto CSL ones.
func (it Item) Type() string {
	t := it.Str("type")
	if mapped, ok := crossrefTypes[t]; ok {
		return mapped
	}
	if t == "" {
		return "article"
	}
	return t
}

// ID returns the item id, if any.
func (it Item) ID() string {
	return it.Str("id")
}

// Str returns a variable as text. Lists yield their first non-empty entry.
func (it Item) Str(name string) string {
	return scalarString(it[name])
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return ""
	case []any:
		for _, e := range x {
			if s := scalarString(e); s != "" {
				return s
			}
		}
	}
	return ""
}

var nameVariables = map[string]bool{
	"author":             true,
	"editor":             true,
	"translator":         true,
	"container-author":   true,
	"collection-editor":  true,
	"composer":           true,
	"director":           true,
	"editorial-director": true,
	"illustrator":        true,
	"interviewer":        true,
	"original-author":    true,
	"recipient":          true,
	"reviewed-author":    true,
}

var dateVariables = map[string]bool{
	"issued":        true,
	"accessed":      true,
	"original-date": true,
	"event-date":    true,
	"submitted":     true,
}

// IsNameVariable reports whether name is a CSL name variable.
func IsNameVariable(name string) bool { return nameVariables[name] }

// IsDateVariable reports whether name is a CSL date variable.
func IsDateVariable(name string) bool { return dateVariables[name] }

// Has reports whether the variable holds a renderable value.
func (it Item) Has(name string) bool {
	switch {
	case IsNameVariable(name):
		return len(it.Names(name)) > 0
	case IsDateVariable(name):
		return it.Date(name) != nil
	default:
		return it.Str(name) != ""
	}
}

// Renderable reports whether the item carries anything a style can print.
func (it Item) Renderable() bool {
	for _, v := range []string{"title", "container-title", "DOI", "URL"} {
		if it.Has(v) {
			return true
		}
	}
	for v := range nameVariables {
		if it.Has(v) {
			return true
		}
	}
	return false
}

// With returns a shallow copy with one variable set, leaving it untouched.
func (it Item) With(name string, value any) Item {
	out := make(Item, len(it)+1)
	for k, v := range it {
		out[k] = v
	}
	out[name] = value
	return out
}
