package csl

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Name is a CSL name object. Organisations use Literal.
type Name struct {
	Family              string
	Given               string
	Literal             string
	NonDroppingParticle string
	DroppingParticle    string
	Suffix              string
}

// IsLiteral reports whether the name has no family/given split.
func (n Name) IsLiteral() bool {
	return n.Family == "" && n.Literal != ""
}

// Names decodes a name variable. Registry author objects with only a "name"
// field (institutional authors) become literal names.
func (it Item) Names(variable string) []Name {
	raw, ok := it[variable].([]any)
	if !ok {
		return nil
	}

	var names []Name
	for _, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			if s := scalarString(entry); s != "" {
				names = append(names, Name{Literal: s})
			}
			continue
		}
		n := Name{
			Family:              scalarString(obj["family"]),
			Given:               scalarString(obj["given"]),
			Literal:             scalarString(obj["literal"]),
			NonDroppingParticle: scalarString(obj["non-dropping-particle"]),
			DroppingParticle:    scalarString(obj["dropping-particle"]),
			Suffix:              scalarString(obj["suffix"]),
		}
		if n.Literal == "" && n.Family == "" {
			n.Literal = scalarString(obj["name"])
		}
		if n.Family == "" && n.Literal == "" && n.Given != "" {
			n.Literal = n.Given
			n.Given = ""
		}
		if n.Family == "" && n.Literal == "" {
			continue
		}
		names = append(names, n)
	}
	return names
}

// FamilyPart returns the family name with its non-dropping particle.
func (n Name) FamilyPart() string {
	if n.IsLiteral() {
		return n.Literal
	}
	return joinNonEmpty(" ", n.NonDroppingParticle, n.Family)
}

// Initials abbreviates the given name. "Jean-Paul Marie" with ". " yields "J.-P. M.".
func Initials(given, initializeWith string) string {
	words := strings.Fields(given)
	if len(words) == 0 {
		return ""
	}
	hyphenSep := strings.TrimRight(initializeWith, " ") + "-"

	parts := make([]string, 0, len(words))
	for _, w := range words {
		pieces := strings.Split(w, "-")
		initials := make([]string, 0, len(pieces))
		for _, p := range pieces {
			r, _ := utf8.DecodeRuneInString(p)
			if r == utf8.RuneError {
				continue
			}
			initials = append(initials, string(unicode.ToUpper(r)))
		}
		if len(initials) == 0 {
			continue
		}
		parts = append(parts, strings.Join(initials, hyphenSep)+initializeWith)
	}
	return strings.TrimRight(strings.Join(parts, ""), " ")
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
