package inquiry

import (
	"strings"

	"roomservice/internal/matcher"
	"roomservice/internal/models"
)

// question is a guest message folded for keyword lookups
type question struct {
	tokens []string
	padded string
}

func newQuestion(text string) question {
	tokens := matcher.Tokens(strings.ReplaceAll(text, "-", " "))
	for i, tok := range tokens {
		tokens[i] = matcher.Singular(tok)
	}
	return question{tokens: tokens, padded: " " + strings.Join(tokens, " ") + " "}
}

func (q question) hasAny(words []string) bool {
	for _, w := range words {
		if strings.Contains(q.padded, " "+w+" ") {
			return true
		}
	}
	return false
}

// allergen returns the first allergen named in the question, in catalog spelling
func (q question) allergen(items []models.MenuItem) string {
	known := make(map[string]string)
	for _, item := range items {
		for _, a := range item.Allergens {
			known[matcher.Singular(strings.ToLower(a))] = a
		}
	}
	for _, tok := range q.tokens {
		if a, ok := known[tok]; ok {
			return a
		}
		if syn, ok := allergenSynonyms[tok]; ok {
			if a, ok := known[matcher.Singular(string(syn))]; ok {
				return a
			}
			return string(syn)
		}
	}
	return ""
}

func (q question) category() (models.MenuCategory, bool) {
	for _, tok := range q.tokens {
		if c, ok := categorySynonyms[tok]; ok {
			return c, true
		}
	}
	return "", false
}

// content returns the words that may name a menu item
func (q question) content() []string {
	var out []string
	for _, tok := range q.tokens {
		if stopwords[tok] || allergenSynonyms[tok] != "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}
