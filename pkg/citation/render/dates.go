package render

import (
	"fmt"
	"strconv"
	"strings"

	"ai-writing-be/pkg/citation/csl"
)

func (e *evaluator) date(n *csl.Node) output {
	v := n.Attr("variable")
	var text string
	if !e.suppressed[v] {
		if d := e.item.Date(v); d != nil {
			text = formatDate(n, d)
		}
	}
	o := e.track(v, text)
	o.text = format(n, o.text)
	return o
}

func formatDate(n *csl.Node, d *csl.Date) string {
	if d.Literal != "" {
		return d.Literal
	}

	var parts []csl.Node
	for _, c := range n.Children {
		if c.Name == "date-part" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return localizedDate(n.Attr("form"), n.Attr("date-parts"), d)
	}

	rendered := make([]string, 0, len(parts))
	for i := range parts {
		if s := datePart(&parts[i], d); s != "" {
			rendered = append(rendered, s)
		}
	}
	return strings.Join(rendered, n.Attr("delimiter"))
}

func datePart(p *csl.Node, d *csl.Date) string {
	form := p.Attr("form")
	var s string
	switch p.Attr("name") {
	case "year":
		if d.Year == 0 {
			return ""
		}
		s = strconv.Itoa(d.Year)
		if form == "short" {
			s = fmt.Sprintf("%02d", d.Year%100)
		}
	case "month":
		if d.Month == 0 {
			return ""
		}
		switch form {
		case "numeric":
			s = strconv.Itoa(d.Month)
		case "numeric-leading-zeros":
			s = fmt.Sprintf("%02d", d.Month)
		case "short":
			s = csl.MonthName(d.Month, true)
		default:
			s = csl.MonthName(d.Month, false)
		}
	case "day":
		if d.Day == 0 {
			return ""
		}
		switch form {
		case "numeric-leading-zeros":
			s = fmt.Sprintf("%02d", d.Day)
		case "ordinal":
			s = csl.Ordinal(d.Day)
		default:
			s = strconv.Itoa(d.Day)
		}
	}
	return format(p, s)
}

// localizedDate renders the en-US "text" and "numeric" date forms.
func localizedDate(form, show string, d *csl.Date) string {
	month, day := d.Month, d.Day
	switch show {
	case "year":
		month, day = 0, 0
	case "year-month":
		day = 0
	}
	if month == 0 {
		day = 0
	}

	if form == "numeric" {
		parts := make([]string, 0, 3)
		if month != 0 {
			parts = append(parts, strconv.Itoa(month))
		}
		if day != 0 {
			parts = append(parts, strconv.Itoa(day))
		}
		parts = append(parts, strconv.Itoa(d.Year))
		return strings.Join(parts, "/")
	}

	switch {
	case month != 0 && day != 0:
		return fmt.Sprintf("%s %d, %d", csl.MonthName(month, false), day, d.Year)
	case month != 0:
		return fmt.Sprintf("%s %d", csl.MonthName(month, false), d.Year)
	default:
		return strconv.Itoa(d.Year)
	}
}
