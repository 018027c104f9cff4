package csl

import (
	"regexp"
	"strconv"
)

// Date is the first point of a CSL date variable. Zero fields are unknown.
type Date struct {
	Year    int
	Month   int
	Day     int
	Literal string
}

var rawDatePattern = regexp.MustCompile(`^\s*(\d{4})(?:[-/](\d{1,2}))?(?:[-/](\d{1,2}))?`)

// issuedFallbacks are registry date fields consulted when "issued" is absent.
var issuedFallbacks = []string{"published-print", "published-online", "published", "created"}

// Date decodes a CSL date variable.
func (it Item) Date(variable string) *Date {
	if d := parseDate(it[variable]); d != nil {
		return d
	}
	if variable == "issued" {
		for _, alt := range issuedFallbacks {
			if d := parseDate(it[alt]); d != nil {
				return d
			}
		}
	}
	return nil
}

func parseDate(v any) *Date {
	obj, ok := v.(map[string]any)
	if !ok {
		if s := scalarString(v); s != "" {
			return parseRawDate(s)
		}
		return nil
	}

	if parts, ok := obj["date-parts"].([]any); ok && len(parts) > 0 {
		if first, ok := parts[0].([]any); ok && len(first) > 0 {
			d := &Date{}
			fields := []*int{&d.Year, &d.Month, &d.Day}
			for i, p := range first {
				if i >= len(fields) {
					break
				}
				n, err := strconv.Atoi(scalarString(p))
				if err != nil {
					break
				}
				*fields[i] = n
			}
			if d.Year != 0 {
				return d.clamped()
			}
		}
	}
	if raw := scalarString(obj["raw"]); raw != "" {
		if d := parseRawDate(raw); d != nil {
			return d
		}
	}
	if lit := scalarString(obj["literal"]); lit != "" {
		return &Date{Literal: lit}
	}
	return nil
}

func parseRawDate(s string) *Date {
	m := rawDatePattern.FindStringSubmatch(s)
	if m == nil {
		return &Date{Literal: s}
	}
	d := &Date{}
	d.Year, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		d.Month, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		d.Day, _ = strconv.Atoi(m[3])
	}
	return d.clamped()
}

// clamped drops an out-of-range month, and the day with it.
func (d *Date) clamped() *Date {
	if d.Month < 1 || d.Month > 12 {
		d.Month, d.Day = 0, 0
	}
	if d.Day < 1 || d.Day > 31 {
		d.Day = 0
	}
	return d
}
