package csl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// RawText is an existing citation supplied by the user, as CSL-JSON or BibTeX.
type RawText string

// Items parses the text into CSL items.
func (t RawText) Items() ([]Item, error) {
	s := strings.TrimSpace(string(t))
	switch {
	case s == "":
		return nil, errors.New("citation text is empty")
	case s[0] == '{' || s[0] == '[':
		return decodeItems([]byte(s))
	case s[0] == '@':
		return ParseBibTeX(s)
	default:
		return nil, errors.New("citation text is neither CSL-JSON nor BibTeX")
	}
}

var bibtexTypes = map[string]string{
	"article":       "article-journal",
	"book":          "book",
	"booklet":       "book",
	"inbook":        "chapter",
	"incollection":  "chapter",
	"inproceedings": "paper-conference",
	"conference":    "paper-conference",
	"manual":        "report",
	"mastersthesis": "thesis",
	"phdthesis":     "thesis",
	"techreport":    "report",
	"proceedings":   "book",
	"online":        "webpage",
	"misc":          "document",
	"unpublished":   "manuscript",
}

var bibtexMonths = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ParseBibTeX converts BibTeX entries into CSL items. @string, @comment and
// @preamble blocks are skipped.
func ParseBibTeX(src string) ([]Item, error) {
	p := &bibParser{src: src}
	var items []Item
	for {
		entry, err := p.next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			break
		}
		if entry.kind == "string" || entry.kind == "comment" || entry.kind == "preamble" {
			continue
		}
		items = append(items, entry.toItem())
	}
	if len(items) == 0 {
		return nil, errors.New("no BibTeX entries found")
	}
	return items, nil
}

type bibEntry struct {
	kind   string
	key    string
	fields map[string]string
}

type bibParser struct {
	src string
	pos int
}

func (p *bibParser) next() (*bibEntry, error) {
	at := strings.IndexByte(p.src[p.pos:], '@')
	if at < 0 {
		return nil, nil
	}
	p.pos += at + 1

	start := p.pos
	for p.pos < len(p.src) && unicode.IsLetter(rune(p.src[p.pos])) {
		p.pos++
	}
	kind := strings.ToLower(p.src[start:p.pos])
	p.skipSpace()
	if p.pos >= len(p.src) || (p.src[p.pos] != '{' && p.src[p.pos] != '(') {
		return nil, fmt.Errorf("bibtex: expected '{' after @%s", kind)
	}
	closer := byte('}')
	if p.src[p.pos] == '(' {
		closer = ')'
	}
	p.pos++

	entry := &bibEntry{kind: kind, fields: make(map[string]string)}
	if kind == "comment" || kind == "preamble" || kind == "string" {
		if err := p.skipBalanced(closer); err != nil {
			return nil, err
		}
		return entry, nil
	}

	keyEnd := strings.IndexAny(p.src[p.pos:], ","+string(closer))
	if keyEnd < 0 {
		return nil, fmt.Errorf("bibtex: unterminated @%s entry", kind)
	}
	entry.key = strings.TrimSpace(p.src[p.pos : p.pos+keyEnd])
	p.pos += keyEnd

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("bibtex: unterminated entry %q", entry.key)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
			continue
		case closer:
			p.pos++
			return entry, nil
		}

		name, err := p.fieldName()
		if err != nil {
			return nil, fmt.Errorf("bibtex entry %q: %w", entry.key, err)
		}
		value, err := p.fieldValue(closer)
		if err != nil {
			return nil, fmt.Errorf("bibtex entry %q field %s: %w", entry.key, name, err)
		}
		entry.fields[name] = value
	}
}

func (p *bibParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *bibParser) skipBalanced(closer byte) error {
	opener := byte('{')
	if closer == ')' {
		opener = '('
	}
	depth := 1
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return errors.New("bibtex: unbalanced braces")
}

func (p *bibParser) fieldName() (string, error) {
	eq := strings.IndexByte(p.src[p.pos:], '=')
	if eq < 0 {
		return "", errors.New("expected field = value")
	}
	name := strings.ToLower(strings.TrimSpace(p.src[p.pos : p.pos+eq]))
	if name == "" || strings.ContainsAny(name, "{}\",") {
		return "", fmt.Errorf("malformed field name %q", name)
	}
	p.pos += eq + 1
	p.skipSpace()
	return name, nil
}

func (p *bibParser) fieldValue(closer byte) (string, error) {
	if p.pos >= len(p.src) {
		return "", errors.New("missing value")
	}
	switch p.src[p.pos] {
	case '{':
		depth := 0
		start := p.pos + 1
		for p.pos < len(p.src) {
			switch p.src[p.pos] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					value := p.src[start:p.pos]
					p.pos++
					return cleanBibValue(value), nil
				}
			}
			p.pos++
		}
		return "", errors.New("unbalanced braces")
	case '"':
		start := p.pos + 1
		depth := 0
		for p.pos++; p.pos < len(p.src); p.pos++ {
			switch p.src[p.pos] {
			case '{':
				depth++
			case '}':
				depth--
			case '"':
				if depth == 0 {
					value := p.src[start:p.pos]
					p.pos++
					return cleanBibValue(value), nil
				}
			}
		}
		return "", errors.New("unterminated quoted value")
	default:
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != ',' && p.src[p.pos] != closer {
			p.pos++
		}
		return strings.TrimSpace(p.src[start:p.pos]), nil
	}
}

func cleanBibValue(v string) string {
	v = strings.NewReplacer("{", "", "}", "", "\\&", "&", "\\%", "%", "\\_", "_", "~", " ").Replace(v)
	return strings.Join(strings.Fields(v), " ")
}

func (e *bibEntry) toItem() Item {
	it := Item{"id": e.key}
	if t, ok := bibtexTypes[e.kind]; ok {
		it["type"] = t
	} else {
		it["type"] = "document"
	}

	f := e.fields
	setStr := func(cslName string, keys ...string) {
		for _, b := range keys {
			if v := f[b]; v != "" {
				it[cslName] = v
				return
			}
		}
	}
	setStr("title", "title")
	setStr("container-title", "journal", "journaltitle", "booktitle")
	setStr("collection-title", "series")
	setStr("publisher", "publisher", "school", "institution", "organization")
	setStr("publisher-place", "address", "location")
	setStr("volume", "volume")
	setStr("issue", "number", "issue")
	setStr("edition", "edition")
	setStr("DOI", "doi")
	setStr("URL", "url")
	setStr("note", "note")
	if pages := f["pages"]; pages != "" {
		it["page"] = strings.ReplaceAll(pages, "--", "-")
	}

	for _, role := range []string{"author", "editor", "translator"} {
		if v := f[role]; v != "" {
			it[role] = bibNames(v)
		}
	}

	if y := f["year"]; y != "" {
		parts := []any{y}
		if m := bibMonth(f["month"]); m > 0 {
			parts = append(parts, m)
		}
		it["issued"] = map[string]any{"date-parts": []any{parts}}
	} else if d := f["date"]; d != "" {
		it["issued"] = map[string]any{"raw": d}
	}
	return it
}

func bibMonth(v string) int {
	v = strings.ToLower(strings.TrimSpace(v))
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 12 {
		return n
	}
	if len(v) >= 3 {
		return bibtexMonths[v[:3]]
	}
	return 0
}

// bibNames splits "Doe, Jane and John Smith" into CSL name objects.
func bibNames(v string) []any {
	var out []any
	for _, raw := range splitOnAnd(v) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.EqualFold(raw, "others") {
			continue
		}
		if strings.Contains(raw, ",") {
			parts := strings.Split(raw, ",")
			n := map[string]any{"family": strings.TrimSpace(parts[0])}
			switch len(parts) {
			case 2:
				n["given"] = strings.TrimSpace(parts[1])
			default:
				n["suffix"] = strings.TrimSpace(parts[1])
				n["given"] = strings.TrimSpace(strings.Join(parts[2:], ","))
			}
			out = append(out, n)
			continue
		}
		words := strings.Fields(raw)
		if len(words) == 1 {
			out = append(out, map[string]any{"literal": words[0]})
			continue
		}
		// "Ludwig van Beethoven": lowercase words before the last start the particle.
		split := len(words) - 1
		for i := 1; i < len(words)-1; i++ {
			if r := []rune(words[i])[0]; unicode.IsLower(r) {
				split = i
				break
			}
		}
		n := map[string]any{
			"given":  strings.Join(words[:split], " "),
			"family": words[len(words)-1],
		}
		if split < len(words)-1 {
			n["non-dropping-particle"] = strings.Join(words[split:len(words)-1], " ")
		}
		out = append(out, n)
	}
	return out
}

// splitOnAnd splits on the BibTeX " and " separator, case-insensitively.
func splitOnAnd(v string) []string {
	var parts []string
	lower := strings.ToLower(v)
	start := 0
	for {
		i := strings.Index(lower[start:], " and ")
		if i < 0 {
			parts = append(parts, v[start:])
			return parts
		}
		parts = append(parts, v[start:start+i])
		start += i + len(" and ")
	}
}
