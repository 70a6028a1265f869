package matcher

import (
	"regexp"
	"strings"
)

var (
	apostrophes = strings.NewReplacer("'", "", "’", "")
	nonWord     = regexp.MustCompile(`[^\p{L}\p{N}\s-]+`)
)

// Normalize lowercases s, drops punctuation other than hyphens and
// collapses whitespace.
func Normalize(s string) string {
	s = apostrophes.Replace(strings.ToLower(s))
	s = nonWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits normalized text into words
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// Singular strips common English plural endings
func Singular(word string) string {
	n := len(word)
	switch {
	case n <= 3:
		return word
	case n > 4 && strings.HasSuffix(word, "ies"):
		return word[:n-3] + "y"
	case strings.HasSuffix(word, "ches"), strings.HasSuffix(word, "shes"),
		strings.HasSuffix(word, "sses"), strings.HasSuffix(word, "xes"),
		n > 4 && strings.HasSuffix(word, "oes"):
		return word[:n-2]
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:n-1]
	default:
		return word
	}
}

var articles = map[string]bool{"a": true, "an": true, "the": true, "please": true, "some": true}

var negations = map[string]bool{"no": true, "without": true, "hold": true, "minus": true, "skip": true}

// modifierFillers are dropped from modification phrases so that
// "with anchovies" and "add anchovies" compare equal.
var modifierFillers = map[string]bool{"add": true, "with": true, "and": true, "of": true}

// canonical reduces text to the form used for both fuzzy comparison and
// embedding lookups.
func canonical(s string, modifier bool) string {
	tokens := Tokens(s)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if articles[tok] {
			continue
		}
		if modifier {
			if negations[tok] {
				tok = "no"
			} else if modifierFillers[tok] {
				continue
			}
		}
		out = append(out, Singular(tok))
	}
	return strings.Join(out, " ")
}

func negated(key string) bool {
	for _, tok := range strings.Fields(key) {
		if tok == "no" {
			return true
		}
	}
	return false
}
