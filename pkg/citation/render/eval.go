package render

import (
	"strconv"
	"strings"

	"ai-writing-be/pkg/citation/csl"
)

// maxDepth bounds element nesting; ParseStyle already rejects macro cycles.
const maxDepth = 64

// output is the text an element produced plus the variable bookkeeping that
// drives group suppression.
type output struct {
	text     string
	called   int
	rendered int
}

func (o *output) add(child output) {
	o.called += child.called
	o.rendered += child.rendered
}

type evaluator struct {
	style  *csl.Style
	item   csl.Item
	position int

	suppressed   map[string]bool
	substituting bool
	depth        int
}

func newEvaluator(s *csl.Style, it csl.Item, position int) *evaluator {
	return &evaluator{
		style:      s,
		item:       it,
		position:   position,
		suppressed: make(map[string]bool),
	}
}

func (e *evaluator) layout() string {
	o := e.sequence(e.style.Layout.Children, "")
	return affix(e.style.Layout, o.text)
}

// sequence renders children in order and joins the non-empty results.
func (e *evaluator) sequence(children []csl.Node, delimiter string) output {
	var o output
	parts := make([]string, 0, len(children))
	for i := range children {
		child := e.element(&children[i])
		o.add(child)
		if child.text != "" {
			parts = append(parts, child.text)
		}
	}
	o.text = strings.Join(parts, delimiter)
	return o
}

func (e *evaluator) element(n *csl.Node) output {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > maxDepth {
		panic("element nesting too deep")
	}

	switch n.Name {
	case "text":
		return e.text(n)
	case "names":
		return e.names(n, nil)
	case "date":
		return e.date(n)
	case "number":
		return e.number(n)
	case "label":
		return output{text: e.label(n, n.Attr("variable"))}
	case "group":
		return e.group(n)
	case "choose":
		return e.choose(n)
	}
	return output{}
}

func (e *evaluator) group(n *csl.Node) output {
	o := e.sequence(n.Children, n.Attr("delimiter"))
	if o.called > 0 && o.rendered == 0 {
		return output{called: o.called}
	}
	o.text = format(n, o.text)
	return o
}

func (e *evaluator) text(n *csl.Node) output {
	switch {
	case n.Attr("variable") != "":
		v := n.Attr("variable")
		value := e.variable(v, n.Attr("form"))
		o := e.track(v, value)
		o.text = format(n, o.text)
		return o
	case n.Attr("macro") != "":
		m := e.style.Macros[n.Attr("macro")]
		o := e.sequence(m.Children, "")
		o.text = format(n, o.text)
		return o
	case n.Attr("term") != "":
		t := csl.Term(n.Attr("term"), n.Attr("form"), n.Attr("plural") == "true")
		return output{text: format(n, t)}
	case hasAttr(n, "value"):
		return output{text: format(n, n.Attr("value"))}
	}
	return output{}
}

// track applies suppression and counts a variable call.
func (e *evaluator) track(variable, value string) output {
	if e.suppressed[variable] {
		return output{called: 1}
	}
	if value == "" {
		return output{called: 1}
	}
	if e.substituting {
		e.suppressed[variable] = true
	}
	return output{text: value, called: 1, rendered: 1}
}

func (e *evaluator) variable(name, form string) string {
	switch name {
	case "citation-number":
		return strconv.Itoa(e.position)
	case "page", "page-first":
		v := e.item.Str("page")
		if name == "page-first" {
			v = firstPage(v)
		}
		return enDashRanges(v)
	}
	if form == "short" {
		if v := e.item.Str(name + "-short"); v != "" {
			return v
		}
		if name == "container-title" {
			if v := e.item.Str("journalAbbreviation"); v != "" {
				return v
			}
		}
	}
	if name == "DOI" {
		return strings.TrimPrefix(e.item.Str("DOI"), "https://doi.org/")
	}
	return e.item.Str(name)
}

func (e *evaluator) number(n *csl.Node) output {
	v := n.Attr("variable")
	value := e.variable(v, "")
	if value != "" && isNumeric(value) {
		if i, err := strconv.Atoi(value); err == nil {
			switch n.Attr("form") {
			case "ordinal", "long-ordinal":
				value = csl.Ordinal(i)
			}
		}
	}
	o := e.track(v, value)
	o.text = format(n, o.text)
	return o
}

// label renders the locale term for a variable when the variable has a value.
func (e *evaluator) label(n *csl.Node, variable string) string {
	if variable == "" || e.suppressed[variable] || !e.item.Has(variable) {
		return ""
	}
	plural := false
	switch n.Attr("plural") {
	case "always":
		plural = true
	case "never":
	default:
		if csl.IsNameVariable(variable) {
			plural = len(e.item.Names(variable)) > 1
		} else {
			plural = strings.ContainsAny(e.item.Str(variable), "-–,&")
		}
	}
	form := n.Attr("form")
	if form == "" {
		form = "long"
	}
	return format(n, csl.Term(variable, form, plural))
}

func (e *evaluator) choose(n *csl.Node) output {
	for i := range n.Children {
		branch := &n.Children[i]
		switch branch.Name {
		case "if", "else-if":
			if e.matches(branch) {
				return e.sequence(branch.Children, "")
			}
		case "else":
			return e.sequence(branch.Children, "")
		}
	}
	return output{}
}

func (e *evaluator) matches(branch *csl.Node) bool {
	var results []bool
	for _, t := range strings.Fields(branch.Attr("type")) {
		results = append(results, e.item.Type() == t)
	}
	for _, v := range strings.Fields(branch.Attr("variable")) {
		results = append(results, !e.suppressed[v] && e.item.Has(v))
	}
	for _, v := range strings.Fields(branch.Attr("is-numeric")) {
		results = append(results, isNumeric(e.variable(v, "")))
	}
	if len(results) == 0 {
		return false
	}

	switch branch.Attr("match") {
	case "any":
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	case "none":
		for _, r := range results {
			if r {
				return false
			}
		}
		return true
	default:
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	}
}

func hasAttr(n *csl.Node, name string) bool {
	_, ok := n.Attrs[name]
	return ok
}

// isNumeric accepts "12", "12-14", "3, 5" and "2nd"; it rejects "Spring".
func isNumeric(v string) bool {
	if v == "" {
		return false
	}
	for _, tok := range strings.FieldsFunc(v, func(r rune) bool {
		return r == '-' || r == '–' || r == ',' || r == '&' || r == ' '
	}) {
		trimmed := strings.TrimRight(tok, "stndrh")
		if trimmed == "" {
			return false
		}
		if _, err := strconv.Atoi(trimmed); err != nil {
			return false
		}
	}
	return true
}

func enDashRanges(v string) string {
	v = strings.ReplaceAll(v, "--", "-")
	return strings.ReplaceAll(v, "-", "–")
}

func firstPage(v string) string {
	if i := strings.IndexAny(v, "-–,"); i >= 0 {
		return strings.TrimSpace(v[:i])
	}
	return v
}
