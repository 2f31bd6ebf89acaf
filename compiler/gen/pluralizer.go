package gen

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"

	"github.com/syssam/propel"
)

// Pluralizer converts between the singular and plural forms of a word.
type Pluralizer interface {
	Plural(string) string
	Singular(string) string
}

// PluralizerByName returns the pluralizer named standard, simple or inflect.
func PluralizerByName(name string) (Pluralizer, error) {
	switch strings.ToLower(name) {
	case "", "standard":
		return StandardPluralizer{}, nil
	case "simple":
		return SimplePluralizer{}, nil
	case "inflect":
		return InflectPluralizer{}, nil
	}
	return nil, propel.NewInvalidArgumentError("", "pluralizer", "unknown pluralizer %q", name)
}

// SimplePluralizer appends an s.
type SimplePluralizer struct{}

// Plural implements Pluralizer.
func (SimplePluralizer) Plural(s string) string { return s + "s" }

// Singular implements Pluralizer.
func (SimplePluralizer) Singular(s string) string { return strings.TrimSuffix(s, "s") }

// InflectPluralizer delegates to the go-openapi inflection rules.
type InflectPluralizer struct{}

// Plural implements Pluralizer.
func (InflectPluralizer) Plural(s string) string { return inflect.Pluralize(s) }

// Singular implements Pluralizer.
func (InflectPluralizer) Singular(s string) string { return inflect.Singularize(s) }

// StandardPluralizer applies a fixed English table. Words it does not know are
// singularized through inflect.
type StandardPluralizer struct{}

var (
	irregular = map[string]string{
		"man":    "men",
		"woman":  "women",
		"child":  "children",
		"person": "people",
		"mouse":  "mice",
		"tooth":  "teeth",
		"foot":   "feet",
		"ox":     "oxen",
		"goose":  "geese",
		// Specific words.
		"index":  "indices",
		"matrix": "matrices",
		"vertex": "vertices",
		"alias":  "aliases",
		"status": "statuses",
		"axis":   "axes",
		"crisis": "crises",
		"quiz":   "quizzes",
	}
	uncountable = set("sheep", "fish", "deer", "series", "species", "information", "equipment", "money", "rice")
	// o-endings taking a plain s.
	oException = set("photo", "piano", "halo", "solo", "zero", "pro", "kilo", "memo", "auto")
	fToVes     = set("leaf", "knife", "life", "wife", "half", "shelf", "wolf", "calf", "loaf", "thief")

	singularOf = func() map[string]string {
		m := make(map[string]string, len(irregular))
		for k, v := range irregular {
			m[v] = k
		}
		return m
	}()
	vesToF = func() map[string]string {
		m := make(map[string]string, len(fToVes))
		for w := range fToVes {
			m[vesPlural(w)] = w
		}
		return m
	}()
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Plural implements Pluralizer. Only the last word of a camel-case name is
// inflected: BookAuthor becomes BookAuthors.
func (StandardPluralizer) Plural(s string) string {
	head, tail := lastWord(s)
	return head + plural(tail)
}

// Singular implements Pluralizer.
func (StandardPluralizer) Singular(s string) string {
	head, tail := lastWord(s)
	return head + singular(tail)
}

func plural(s string) string {
	if s == "" {
		return s
	}
	w := strings.ToLower(s)
	switch {
	case uncountable[w]:
		return s
	case irregular[w] != "":
		return matchCase(s, irregular[w])
	case fToVes[w]:
		return matchCase(s, vesPlural(w))
	}
	switch {
	case strings.HasSuffix(w, "y") && len(w) > 1 && !isVowel(w[len(w)-2]):
		return s[:len(s)-1] + "ies"
	case strings.HasSuffix(w, "o"):
		if oException[w] || (len(w) > 1 && isVowel(w[len(w)-2])) {
			return s + "s"
		}
		return s + "es"
	case sibilant(w):
		return s + "es"
	}
	return s + "s"
}

func singular(s string) string {
	if s == "" {
		return s
	}
	w := strings.ToLower(s)
	switch {
	case uncountable[w]:
		return s
	case singularOf[w] != "":
		return matchCase(s, singularOf[w])
	case vesToF[w] != "":
		return matchCase(s, vesToF[w])
	}
	return inflect.Singularize(s)
}

// lastWord splits a camel-case name before its last upper-case letter.
func lastWord(s string) (head, tail string) {
	for i := len(s) - 1; i > 0; i-- {
		if s[i] >= 'A' && s[i] <= 'Z' {
			if strings.ToUpper(s[i:]) == s[i:] {
				break
			}
			return s[:i], s[i:]
		}
	}
	return "", s
}

func vesPlural(w string) string {
	if strings.HasSuffix(w, "fe") {
		return w[:len(w)-2] + "ves"
	}
	return w[:len(w)-1] + "ves"
}

func sibilant(w string) bool {
	for _, suffix := range []string{"s", "x", "z", "ch", "sh"} {
		if strings.HasSuffix(w, suffix) {
			return true
		}
	}
	return false
}

func isVowel(c byte) bool {
	return strings.IndexByte("aeiou", c) >= 0
}

// matchCase gives word the case of the first letter of like.
func matchCase(like, word string) string {
	r, _ := utf8.DecodeRuneInString(like)
	if !unicode.IsUpper(r) {
		return word
	}
	w, size := utf8.DecodeRuneInString(word)
	return string(unicode.ToUpper(w)) + word[size:]
}
