package matcher

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// tokenSetWeight caps token-set matches below an exact match
const tokenSetWeight = 0.95

// ratio is the normalized Levenshtein similarity of two strings
func ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func tokenSet(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range strings.Fields(s) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}

// tokenSetRatio compares the shared tokens of a and b against each side's
// full token set, so a phrase whose words all appear in the other scores 1.
func tokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	inB := make(map[string]bool, len(tb))
	for _, tok := range tb {
		inB[tok] = true
	}

	var inter, onlyA, onlyB []string
	inA := make(map[string]bool, len(ta))
	for _, tok := range ta {
		inA[tok] = true
		if inB[tok] {
			inter = append(inter, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for _, tok := range tb {
		if !inA[tok] {
			onlyB = append(onlyB, tok)
		}
	}

	t0 := strings.Join(inter, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(onlyA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(onlyB, " "))

	best := ratio(t1, t2)
	if t0 != "" {
		if r := ratio(t0, t1); r > best {
			best = r
		}
		if r := ratio(t0, t2); r > best {
			best = r
		}
	}
	return best
}

// fuzzyScore compares two canonical strings
func fuzzyScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	score := ratio(a, b)
	if ts := tokenSetWeight * tokenSetRatio(a, b); ts > score {
		score = ts
	}
	return score
}

// FuzzyScore compares two free-text phrases after canonicalization
func FuzzyScore(a, b string) float64 {
	return fuzzyScore(canonical(a, false), canonical(b, false))
}
