package speech

import (
	"regexp"
	"sort"
	"strings"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Phonetics rewrites brand terms into spellings a locale's voice pronounces
// correctly. Matching is case-insensitive and whole-word.
type Phonetics struct {
	rules map[string][]rule
}

// NewPhonetics compiles a locale -> term -> replacement table. Locale keys are
// matched on the primary language subtag ("ur" covers "ur-PK").
func NewPhonetics(table map[string]map[string]string) *Phonetics {
	p := &Phonetics{rules: map[string][]rule{}}
	for loc, terms := range table {
		keys := make([]string, 0, len(terms))
		for k := range terms {
			keys = append(keys, k)
		}
		// longer terms first so "LumiX AI" wins over "AI"
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) > len(keys[j])
			}
			return keys[i] < keys[j]
		})
		rs := make([]rule, 0, len(keys))
		for _, k := range keys {
			rs = append(rs, rule{
				re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(k) + `\b`),
				repl: terms[k],
			})
		}
		p.rules[language(loc)] = rs
	}
	return p
}

func DefaultPhonetics() *Phonetics {
	return NewPhonetics(map[string]map[string]string{
		"ur": {
			"LumiX": "لومکس",
			"NOVA":  "نووا",
			"AI":    "اے آئی",
			"GPA":   "جی پی اے",
		},
	})
}

func language(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i >= 0 {
		locale = locale[:i]
	}
	return locale
}

func (p *Phonetics) Apply(locale, text string) string {
	if p == nil {
		return text
	}
	for _, r := range p.rules[language(locale)] {
		text = r.re.ReplaceAllLiteralString(text, r.repl)
	}
	return text
}
