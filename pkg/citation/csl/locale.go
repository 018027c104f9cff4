package csl

import "strconv"

// Locale is the single output locale the renderer uses.
const Locale = "en-US"

type term struct {
	long, longPlural   string
	short, shortPlural string
	verb, verbShort    string
	symbol             string
}

var enUSTerms = map[string]term{
	"and":          {long: "and", symbol: "&"},
	"et-al":        {long: "et al."},
	"and others":   {long: "and others"},
	"no date":      {long: "no date", short: "n.d."},
	"accessed":     {long: "accessed"},
	"retrieved":    {long: "retrieved"},
	"from":         {long: "from"},
	"in":           {long: "in"},
	"available at": {long: "available at"},
	"online":       {long: "online"},
	"presented at": {long: "presented at the"},
	"editor": {
		long: "editor", longPlural: "editors",
		short: "ed.", shortPlural: "eds.",
		verb: "edited by", verbShort: "ed.",
	},
	"translator": {
		long: "translator", longPlural: "translators",
		short: "tran.", shortPlural: "trans.",
		verb: "translated by", verbShort: "trans.",
	},
	"page":    {long: "page", longPlural: "pages", short: "p.", shortPlural: "pp."},
	"volume":  {long: "volume", longPlural: "volumes", short: "vol.", shortPlural: "vols."},
	"issue":   {long: "issue", longPlural: "issues", short: "no.", shortPlural: "nos."},
	"edition": {long: "edition", longPlural: "editions", short: "ed.", shortPlural: "eds."},
	"chapter": {long: "chapter", longPlural: "chapters", short: "chap.", shortPlural: "chaps."},
}

var months = [...]struct{ long, short string }{
	{"January", "Jan."}, {"February", "Feb."}, {"March", "Mar."}, {"April", "Apr."},
	{"May", "May"}, {"June", "June"}, {"July", "July"}, {"August", "Aug."},
	{"September", "Sept."}, {"October", "Oct."}, {"November", "Nov."}, {"December", "Dec."},
}

// Term looks up an en-US term. Unknown forms fall back to the long form.
func Term(name, form string, plural bool) string {
	t, ok := enUSTerms[name]
	if !ok {
		return ""
	}
	pick := func(single, many string) string {
		if plural && many != "" {
			return many
		}
		return single
	}
	switch form {
	case "short":
		if t.short != "" {
			return pick(t.short, t.shortPlural)
		}
	case "verb":
		if t.verb != "" {
			return t.verb
		}
	case "verb-short":
		if t.verbShort != "" {
			return t.verbShort
		}
	case "symbol":
		if t.symbol != "" {
			return t.symbol
		}
		if t.short != "" {
			return pick(t.short, t.shortPlural)
		}
	}
	return pick(t.long, t.longPlural)
}

// MonthName returns the month name for 1..12, or "".
func MonthName(month int, short bool) string {
	if month < 1 || month > 12 {
		return ""
	}
	if short {
		return months[month-1].short
	}
	return months[month-1].long
}

// Ordinal renders 1 as "1st", 22 as "22nd", 13 as "13th".
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
