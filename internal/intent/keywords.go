package intent

import (
	"strings"

	"roomservice/internal/matcher"
	"roomservice/internal/models"
)

// Keywords holds the lexical cues used to adjust label scores
type Keywords struct {
	MenuInquiry  []string `yaml:"menu_inquiry"`
	OrderActions []string `yaml:"order_actions"`
	Unsupported  []string `yaml:"unsupported"`
	Vague        []string `yaml:"vague"`
	Questions    []string `yaml:"questions"`
	FoodTerms    []string `yaml:"food_terms"`
}

// DefaultKeywords returns the built-in cue lists
func DefaultKeywords() Keywords {
	return Keywords{
		MenuInquiry: []string{
			"menu", "dish", "ingredient", "vegetarian", "vegan", "allergy", "allergen",
			"allergic", "spicy", "price", "cost", "how much", "gluten", "contain",
			"what is in", "whats in", "recommend", "option", "describe", "dairy", "nut",
			"tell me about", "tell me more",
		},
		OrderActions: []string{
			"send", "bring", "deliver", "get", "want", "order", "place", "need",
			"id like", "would like", "wed like", "ill have", "well have", "ill take",
			"can i", "could i", "may i", "let me",
		},
		Unsupported: []string{
			"cancel", "status", "ready", "check", "track", "change", "modify", "gym",
			"pool", "spa", "housekeeping", "clean", "towel", "wake-up", "wakeup",
			"checkout", "check out", "wifi", "wi-fi", "internet", "password", "parking",
			"taxi", "laundry", "reservation", "massage",
		},
		Vague: []string{
			"something good", "something nice", "anything", "whatever", "surprise me",
			"dont know", "not sure",
		},
		Questions: []string{
			"what", "which", "how", "is", "are", "do", "does", "can you", "could you",
			"whats", "hows",
		},
		FoodTerms: []string{
			"food", "meal", "drink", "snack", "sandwich", "water", "pizza", "salad",
			"burger", "juice", "pie", "fries", "bottle", "dessert", "breakfast", "lunch",
			"dinner",
		},
	}
}

// normalizePhrase folds a phrase into the singularized, space padded form
// used for word boundary matching.
func normalizePhrase(s string) string {
	tokens := matcher.Tokens(s)
	for i, tok := range tokens {
		tokens[i] = matcher.Singular(tok)
	}
	return strings.Join(tokens, " ")
}

func prepare(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if n := normalizePhrase(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// cues is the prepared form of Keywords
type cues struct {
	menuInquiry  []string
	orderActions []string
	unsupported  []string
	vague        []string
	questions    []string
	foodTerms    []string
}

func newCues(k Keywords) cues {
	return cues{
		menuInquiry:  prepare(k.MenuInquiry),
		orderActions: prepare(k.OrderActions),
		unsupported:  prepare(k.Unsupported),
		vague:        prepare(k.Vague),
		questions:    prepare(k.Questions),
		foodTerms:    prepare(k.FoodTerms),
	}
}

// utterance is a guest message prepared for cue matching
type utterance struct {
	raw    string
	padded string
}

func newUtterance(s string) utterance {
	return utterance{raw: strings.TrimSpace(s), padded: " " + normalizePhrase(s) + " "}
}

func (u utterance) hasAny(phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(u.padded, " "+p+" ") {
			return true
		}
	}
	return false
}

func (u utterance) empty() bool {
	return strings.TrimSpace(u.padded) == ""
}

func (u utterance) question(c cues) bool {
	if strings.HasSuffix(u.raw, "?") {
		return true
	}
	for _, q := range c.questions {
		if strings.HasPrefix(u.padded, " "+q+" ") {
			return true
		}
	}
	return false
}

// menuTerms returns the phrases that count as a catalog item mention:
// every item name, alias and head noun.
func menuTerms(items []models.MenuItem) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if n := normalizePhrase(s); n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, item := range items {
		add(item.Name)
		for _, alias := range item.Aliases {
			add(alias)
		}
		if tokens := matcher.Tokens(item.Name); len(tokens) > 1 {
			add(tokens[len(tokens)-1])
		}
	}
	return out
}

const (
	boostFactor = 1.2
	boostFloor  = 0.99
)

func boost(v float64) float64 {
	v *= boostFactor
	if v < boostFloor {
		v = boostFloor
	}
	if v > 1 {
		v = 1
	}
	return v
}

// adjust applies the keyword rules to raw label scores. Rules run in a
// fixed order so a later rule can damp an earlier boost.
func adjust(scores map[models.Intent]float64, u utterance, c cues, items []string) map[models.Intent]float64 {
	out := make(map[models.Intent]float64, len(models.Intents))
	for _, label := range models.Intents {
		out[label] = clamp(scores[label])
	}

	hasItem := u.hasAny(items) || u.hasAny(c.foodTerms)
	hasAction := u.hasAny(c.orderActions)

	inquiry := u.hasAny(c.menuInquiry)
	question := u.question(c)

	if inquiry {
		out[models.IntentGeneralInquiry] = boost(out[models.IntentGeneralInquiry])
	}
	// "can I get something without gluten?" stays an inquiry
	if hasAction && hasItem && !(inquiry && question) {
		out[models.IntentNewOrder] = boost(out[models.IntentNewOrder])
		out[models.IntentGeneralInquiry] *= 0.5
	}
	unsupported := u.hasAny(c.unsupported)
	// a bare dish name such as "caesar salad with anchovies" is an order
	if hasItem && !hasAction && !inquiry && !question && !unsupported {
		out[models.IntentNewOrder] = boost(out[models.IntentNewOrder])
		out[models.IntentGeneralInquiry] *= 0.5
	}
	if unsupported {
		out[models.IntentUnsupportedAction] = boost(out[models.IntentUnsupportedAction])
		out[models.IntentGeneralInquiry] *= 0.5
		out[models.IntentNewOrder] *= 0.5
	}
	if !hasItem {
		out[models.IntentNewOrder] *= 0.7
	}
	if u.hasAny(c.vague) || u.empty() {
		out[models.IntentUnknown] = boost(out[models.IntentUnknown])
	}
	if question && !hasAction {
		out[models.IntentNewOrder] *= 0.5
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
