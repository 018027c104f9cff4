package render

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"ai-writing-be/pkg/citation/csl"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	spaceRun         = regexp.MustCompile(`\s+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([.,;:])`)
	repeatedStop     = regexp.MustCompile(`([.?!])\.+`)
	repeatedComma    = regexp.MustCompile(`,{2,}`)
)

// Words kept lower case by title casing unless they open the string.
var titleStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "but": true, "by": true,
	"for": true, "from": true, "in": true, "into": true, "nor": true, "of": true, "on": true,
	"or": true, "the": true, "to": true, "up": true, "with": true, "vs.": true,
}

// format applies the formatting attributes of n that survive plain-text output.
func format(n *csl.Node, s string) string {
	if n == nil || s == "" {
		return s
	}
	if n.Attr("strip-periods") == "true" {
		s = strings.ReplaceAll(s, ".", "")
	}
	s = textCase(n.Attr("text-case"), s)
	if n.Attr("quotes") == "true" {
		s = "“" + s + "”"
	}
	return affix(n, s)
}

func affix(n *csl.Node, s string) string {
	if s == "" {
		return ""
	}
	return n.Attr("prefix") + s + n.Attr("suffix")
}

func textCase(mode, s string) string {
	switch mode {
	case "lowercase":
		return cases.Lower(language.AmericanEnglish).String(s)
	case "uppercase":
		return cases.Upper(language.AmericanEnglish).String(s)
	case "capitalize-first", "sentence":
		return upperFirst(s)
	case "capitalize-all":
		words := strings.Split(s, " ")
		for i, w := range words {
			words[i] = upperFirst(w)
		}
		return strings.Join(words, " ")
	case "title":
		return titleCase(s)
	}
	return s
}

func titleCase(s string) string {
	caser := cases.Title(language.AmericanEnglish, cases.NoLower)
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" || hasInnerUpper(w) {
			continue
		}
		if i > 0 && titleStopWords[strings.ToLower(w)] {
			continue
		}
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

func hasInnerUpper(w string) bool {
	_, size := utf8.DecodeRuneInString(w)
	for _, r := range w[size:] {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// cleanup normalizes spacing and punctuation left by adjacent affixes.
// Periods and commas move inside closing quotes, as en-US requires.
func cleanup(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, ",”.", ".”")
	s = strings.ReplaceAll(s, "”.", ".”")
	s = strings.ReplaceAll(s, "”,", ",”")
	s = repeatedStop.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, ",.", ".")
	s = repeatedComma.ReplaceAllString(s, ",")
	return strings.TrimSpace(s)
}
