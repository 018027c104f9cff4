package render

import (
	"strconv"
	"strings"

	"ai-writing-be/pkg/citation/csl"
)

type nameOptions struct {
	and                   string
	delimiter             string
	delimiterPrecedesLast string
	delimiterPrecedesEtAl string
	etAlMin               int
	etAlUseFirst          int
	initialize            bool
	initializeWith        string
	hasInitializeWith     bool
	asSortOrder           string
	sortSeparator         string
	form                  string
}

// nameOptionsFor merges style-level defaults with the attributes on <name>.
func (e *evaluator) nameOptionsFor(name *csl.Node) nameOptions {
	get := func(attr, styleAttr, fallback string) string {
		if name != nil {
			if v, ok := name.Attrs[attr]; ok {
				return v
			}
		}
		if v, ok := e.style.NameOptions[styleAttr]; ok {
			return v
		}
		return fallback
	}
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}

	o := nameOptions{
		and:                   get("and", "and", ""),
		delimiter:             get("delimiter", "name-delimiter", ", "),
		delimiterPrecedesLast: get("delimiter-precedes-last", "delimiter-precedes-last", "contextual"),
		delimiterPrecedesEtAl: get("delimiter-precedes-et-al", "delimiter-precedes-et-al", "contextual"),
		etAlMin:               atoi(get("et-al-min", "et-al-min", "0")),
		etAlUseFirst:          atoi(get("et-al-use-first", "et-al-use-first", "0")),
		initialize:            get("initialize", "initialize", "true") != "false",
		initializeWith:        get("initialize-with", "initialize-with", ""),
		asSortOrder:           get("name-as-sort-order", "name-as-sort-order", ""),
		sortSeparator:         get("sort-separator", "sort-separator", ", "),
		form:                  get("form", "name-form", "long"),
	}
	if name != nil {
		_, o.hasInitializeWith = name.Attrs["initialize-with"]
	}
	if _, ok := e.style.NameOptions["initialize-with"]; ok {
		o.hasInitializeWith = true
	}
	return o
}

// names renders a <names> element. inherited supplies <name>, <et-al> and
// <label> children to a bare <names> inside <substitute>.
func (e *evaluator) names(n *csl.Node, inherited *csl.Node) output {
	var o output

	source := n
	if inherited != nil && n.Child("name") == nil {
		source = inherited
	}
	nameNode := source.Child("name")
	opts := e.nameOptionsFor(nameNode)

	delimiter := n.Attr("delimiter")
	if delimiter == "" {
		delimiter = e.style.NameOptions["names-delimiter"]
	}

	var parts []string
	for _, v := range strings.Fields(n.Attr("variable")) {
		o.called++
		if e.suppressed[v] {
			continue
		}
		list := e.item.Names(v)
		if len(list) == 0 {
			continue
		}

		var text string
		if opts.form == "count" {
			text = strconv.Itoa(len(truncate(list, opts)))
		} else {
			text = e.nameList(list, opts, source.Child("et-al"))
		}
		text = format(nameNode, text)
		text = e.withLabel(source, v, text)
		if text == "" {
			continue
		}
		if e.substituting {
			e.suppressed[v] = true
		}
		o.rendered++
		parts = append(parts, text)
	}

	if len(parts) == 0 {
		if sub := n.Child("substitute"); sub != nil {
			return e.substitute(n, sub, o.called)
		}
		return output{called: o.called}
	}

	o.text = format(n, strings.Join(parts, delimiter))
	return o
}

func (e *evaluator) substitute(n, sub *csl.Node, called int) output {
	was := e.substituting
	e.substituting = true
	defer func() { e.substituting = was }()

	for i := range sub.Children {
		child := &sub.Children[i]
		var o output
		if child.Name == "names" {
			o = e.names(child, n)
		} else {
			o = e.element(child)
		}
		if o.text != "" {
			o.called += called
			o.text = format(n, o.text)
			return o
		}
	}
	return output{called: called}
}

// withLabel places a <label> before or after the names, following child order.
func (e *evaluator) withLabel(source *csl.Node, variable, names string) string {
	labelNode := source.Child("label")
	if labelNode == nil {
		return names
	}
	label := e.label(labelNode, variable)
	if label == "" {
		return names
	}
	for _, c := range source.Children {
		switch c.Name {
		case "label":
			return label + names
		case "name":
			return names + label
		}
	}
	return names + label
}

func truncate(list []csl.Name, opts nameOptions) []csl.Name {
	if opts.etAlMin > 0 && opts.etAlUseFirst > 0 && len(list) >= opts.etAlMin && opts.etAlUseFirst < len(list) {
		return list[:opts.etAlUseFirst]
	}
	return list
}

func (e *evaluator) nameList(list []csl.Name, opts nameOptions, etAlNode *csl.Node) string {
	shown := truncate(list, opts)
	etAl := len(shown) < len(list)

	formatted := make([]string, len(shown))
	inverted := make([]bool, len(shown))
	for i, name := range shown {
		inverted[i] = !name.IsLiteral() && opts.form != "short" &&
			(opts.asSortOrder == "all" || (opts.asSortOrder == "first" && i == 0))
		formatted[i] = formatName(name, opts, inverted[i])
	}

	var b strings.Builder
	for i, s := range formatted {
		if i > 0 {
			last := i == len(formatted)-1 && !etAl
			if last && opts.and != "" {
				if precedes(opts.delimiterPrecedesLast, len(formatted), inverted[i-1]) {
					b.WriteString(strings.TrimRight(opts.delimiter, " "))
				}
				b.WriteString(" " + andTerm(opts.and) + " ")
			} else {
				b.WriteString(opts.delimiter)
			}
		}
		b.WriteString(s)
	}

	if etAl {
		term := "et-al"
		if etAlNode != nil && etAlNode.Attr("term") != "" {
			term = etAlNode.Attr("term")
		}
		if precedes(opts.delimiterPrecedesEtAl, len(formatted), inverted[len(inverted)-1]) {
			b.WriteString(strings.TrimRight(opts.delimiter, " "))
		}
		b.WriteString(" " + format(etAlNode, csl.Term(term, "long", false)))
	}
	return b.String()
}

// precedes decides whether the delimiter goes before "and" or "et al.".
func precedes(rule string, count int, previousInverted bool) bool {
	switch rule {
	case "always":
		return true
	case "never":
		return false
	case "after-inverted-name":
		return previousInverted
	default:
		return count > 2
	}
}

func andTerm(mode string) string {
	if mode == "symbol" {
		return csl.Term("and", "symbol", false)
	}
	return csl.Term("and", "long", false)
}

func formatName(n csl.Name, opts nameOptions, inverted bool) string {
	if n.IsLiteral() {
		return n.Literal
	}
	if opts.form == "short" {
		return n.FamilyPart()
	}

	given := n.Given
	if opts.hasInitializeWith && opts.initialize {
		given = csl.Initials(given, opts.initializeWith)
	}

	if inverted {
		s := n.FamilyPart()
		if rest := joinWords(given, n.DroppingParticle); rest != "" {
			s += opts.sortSeparator + rest
		}
		if n.Suffix != "" {
			s += opts.sortSeparator + n.Suffix
		}
		return s
	}
	return joinWords(given, n.DroppingParticle, n.FamilyPart(), n.Suffix)
}

func joinWords(words ...string) string {
	kept := words[:0:0]
	for _, w := range words {
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
