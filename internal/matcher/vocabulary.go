package matcher

import (
	"sort"

	"roomservice/internal/models"
)

// Term is one matchable string and the catalog name it resolves to
type Term struct {
	Text   string
	Target string
}

type entry struct {
	key    string
	target string
}

// Vocabulary is a fixed set of terms to match phrases against. Modifier
// vocabularies fold negation synonyms and filler verbs, and penalize
// matches whose polarity differs.
type Vocabulary struct {
	name     string
	modifier bool
	entries  []entry
}

// NewVocabulary builds a vocabulary; duplicate canonical keys keep the first target
func NewVocabulary(name string, modifier bool, terms ...Term) *Vocabulary {
	v := &Vocabulary{name: name, modifier: modifier}
	seen := make(map[string]bool)
	for _, t := range terms {
		key := canonical(t.Text, modifier)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		v.entries = append(v.entries, entry{key: key, target: t.Target})
	}
	sort.Slice(v.entries, func(i, j int) bool { return v.entries[i].key < v.entries[j].key })
	return v
}

// Names builds a vocabulary whose terms resolve to themselves
func Names(name string, names ...string) *Vocabulary {
	terms := make([]Term, len(names))
	for i, n := range names {
		terms[i] = Term{Text: n, Target: n}
	}
	return NewVocabulary(name, false, terms...)
}

// ItemVocabulary covers every item name and alias
func ItemVocabulary(items []models.MenuItem) *Vocabulary {
	var terms []Term
	for _, item := range items {
		terms = append(terms, Term{Text: item.Name, Target: item.Name})
		for _, alias := range item.Aliases {
			terms = append(terms, Term{Text: alias, Target: item.Name})
		}
	}
	return NewVocabulary("items", false, terms...)
}

// ModificationVocabulary covers the modifications an item allows
func ModificationVocabulary(item models.MenuItem) *Vocabulary {
	terms := make([]Term, len(item.AvailableModifications))
	for i, mod := range item.AvailableModifications {
		terms[i] = Term{Text: mod, Target: mod}
	}
	return NewVocabulary("modifications:"+item.Name, true, terms...)
}

// Name identifies the vocabulary in logs
func (v *Vocabulary) Name() string {
	return v.name
}

// Len returns the number of distinct terms
func (v *Vocabulary) Len() int {
	return len(v.entries)
}

// Keys returns the canonical form of every term
func (v *Vocabulary) Keys() []string {
	keys := make([]string, len(v.entries))
	for i, e := range v.entries {
		keys[i] = e.key
	}
	return keys
}

func (v *Vocabulary) canonical(s string) string {
	return canonical(s, v.modifier)
}
