// Package inquiry answers menu questions directly from the catalog.
package inquiry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"roomservice/internal/matcher"
	"roomservice/internal/models"

	"go.uber.org/zap"
)

// Topic represents what an answer is about
type Topic string

const (
	TopicItem          Topic = "item"
	TopicPrice         Topic = "price"
	TopicAllergens     Topic = "allergens"
	TopicModifications Topic = "modifications"
	TopicAvailability  Topic = "availability"
	TopicCategory      Topic = "category"
	TopicAllergenIndex Topic = "allergen_index"
	TopicAmbiguous     Topic = "ambiguous"
	TopicMenu          Topic = "menu"
)

// Answer represents the reply to a menu question
type Answer struct {
	Reply string               `json:"reply"`
	Topic Topic                `json:"topic"`
	Items []models.ItemDetails `json:"items,omitempty"`
}

// Catalog is the catalog view needed to answer questions
type Catalog interface {
	Items() []models.MenuItem
	Categories() []string
	Category(name string) ([]models.MenuItem, error)
	ItemsWithAllergen(allergen string) []models.MenuItem
	Details(name string) (models.ItemDetails, error)
}

var categorySynonyms = map[string]models.MenuCategory{
	"main": models.MenuCategoryMain, "entree": models.MenuCategoryMain, "dinner": models.MenuCategoryMain,
	"side": models.MenuCategorySide,
	"drink": models.MenuCategoryBeverage, "beverage": models.MenuCategoryBeverage,
	"dessert": models.MenuCategoryDessert, "sweet": models.MenuCategoryDessert,
}

var allergenSynonyms = map[string]models.Allergen{
	"milk": models.AllergenDairy, "cheese": models.AllergenDairy, "lactose": models.AllergenDairy,
	"wheat": models.AllergenGluten, "egg": models.AllergenEggs, "seafood": models.AllergenFish,
	"shrimp": models.AllergenShellfish, "prawn": models.AllergenShellfish,
	"nut": models.AllergenNuts, "peanut": models.AllergenPeanuts,
	"soya": models.AllergenSoy, "tahini": models.AllergenSesame,
}

var (
	priceWords        = []string{"price", "cost", "how much", "expensive", "cheap"}
	allergenWords     = []string{"allergen", "allergy", "allergic", "contain", "safe"}
	modificationWords = []string{"modification", "modify", "customize", "customise", "change", "option", "extra"}
	availabilityWords = []string{"available", "in stock", "sold out", "left", "still have"}
	withoutWords      = []string{"free", "without", "no", "avoid"}
)

var stopwords = map[string]bool{
	"what": true, "whats": true, "which": true, "is": true, "are": true, "in": true,
	"the": true, "a": true, "an": true, "does": true, "do": true, "how": true, "much": true,
	"of": true, "on": true, "it": true, "there": true, "contain": true, "ingredient": true,
	"allergen": true, "price": true, "cost": true, "have": true, "with": true,
	"your": true, "you": true, "me": true, "tell": true, "about": true, "can": true,
	"i": true, "get": true, "menu": true, "any": true, "free": true, "item": true,
	"dish": true, "food": true, "please": true, "be": true, "made": true, "from": true,
	"option": true, "available": true, "still": true, "left": true, "stock": true,
	"we": true, "my": true, "to": true, "for": true, "and": true, "or": true,
	"like": true, "good": true, "recommend": true, "safe": true, "has": true,
}

// Answerer answers general inquiries
type Answerer struct {
	catalog Catalog
	matcher *matcher.Matcher
	logger  *zap.Logger
}

// New creates an Answerer
func New(catalog Catalog, m *matcher.Matcher, logger *zap.Logger) *Answerer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Answerer{catalog: catalog, matcher: m, logger: logger}
}

// Answer builds a reply for text. Questions about a specific item take
// precedence over category and allergen listings.
func (a *Answerer) Answer(ctx context.Context, text string) Answer {
	q := newQuestion(text)

	items := a.catalog.Items()
	allergen := q.allergen(items)

	category, hasCategory := q.category()

	if res, ok := a.findItem(ctx, q, items); ok {
		if res.Status == models.ResolutionAmbiguous && len(res.Candidates) > 1 {
			return Answer{
				Topic: TopicAmbiguous,
				Reply: fmt.Sprintf("Did you mean %s?", joinNames(res.Candidates, "or")),
			}
		}
		details, err := a.catalog.Details(res.Best.Name)
		if err == nil {
			return a.aboutItem(q, details, allergen)
		}
		a.logger.Warn("matched item missing from catalog", zap.String("item", res.Best.Name), zap.Error(err))
	}

	if hasCategory {
		if catItems, err := a.catalog.Category(string(category)); err == nil {
			if allergen != "" {
				return a.allergenIndex(q, allergen, catItems)
			}
			return a.listCategory(category, catItems)
		}
	}

	if allergen != "" {
		return a.allergenIndex(q, allergen, items)
	}

	return a.overview()
}

// findItem searches every run of up to four content words for the best
// item match.
func (a *Answerer) findItem(ctx context.Context, q question, items []models.MenuItem) (matcher.Resolution, bool) {
	content := q.content()
	if len(content) == 0 {
		return matcher.Resolution{}, false
	}
	vocab := matcher.ItemVocabulary(items)

	best, bestScore := "", -1.0
	for size := 1; size <= 4 && size <= len(content); size++ {
		for start := 0; start+size <= len(content); start++ {
			if size == 1 && categorySynonyms[content[start]] != "" {
				// "sides" asks for a category, not for Side Salad
				continue
			}
			phrase := strings.Join(content[start:start+size], " ")
			ranked := a.matcher.FuzzyRank(phrase, vocab)
			if len(ranked) > 0 && ranked[0].Score >= bestScore {
				best, bestScore = phrase, ranked[0].Score
			}
		}
	}
	if bestScore < a.matcher.Options().Low {
		return matcher.Resolution{}, false
	}

	res := a.matcher.Resolve(ctx, best, vocab)
	if res.Status == models.ResolutionUnresolved {
		return res, false
	}
	return res, true
}

func (a *Answerer) aboutItem(q question, item models.ItemDetails, allergen string) Answer {
	answer := Answer{Items: []models.ItemDetails{item}}

	switch {
	case allergen != "":
		answer.Topic = TopicAllergens
		// "is it gluten free?" flips the yes/no
		without := q.hasAny(withoutWords)
		switch contains := item.HasAllergen(allergen); {
		case contains && without:
			answer.Reply = fmt.Sprintf("No, %s contains %s.", item.Name, allergen)
		case contains:
			answer.Reply = fmt.Sprintf("Yes, %s contains %s.", item.Name, allergen)
		case without:
			answer.Reply = fmt.Sprintf("Yes, %s doesn't contain %s.", item.Name, allergen)
		default:
			answer.Reply = fmt.Sprintf("No, %s doesn't contain %s.", item.Name, allergen)
		}
	case q.hasAny(allergenWords):
		answer.Topic = TopicAllergens
		answer.Reply = allergenSentence(item.MenuItem)
	case q.hasAny(priceWords):
		answer.Topic = TopicPrice
		answer.Reply = fmt.Sprintf("%s costs %s.", item.Name, price(item.MenuItem))
	case q.hasAny(modificationWords):
		answer.Topic = TopicModifications
		if item.ModificationsAllowed && len(item.AvailableModifications) > 0 {
			answer.Reply = fmt.Sprintf("%s can be ordered with: %s.", item.Name, strings.Join(item.AvailableModifications, ", "))
		} else {
			answer.Reply = fmt.Sprintf("%s is served as is and can't be modified.", item.Name)
		}
	case q.hasAny(availabilityWords):
		answer.Topic = TopicAvailability
		if item.Stock > 0 {
			answer.Reply = fmt.Sprintf("Yes, %s is available.", item.Name)
		} else {
			answer.Reply = fmt.Sprintf("Sorry, %s is sold out right now.", item.Name)
		}
	default:
		answer.Topic = TopicItem
		answer.Reply = fmt.Sprintf("%s (%s): %s. %s", item.Name, price(item.MenuItem), strings.TrimSuffix(item.Description, "."), allergenSentence(item.MenuItem))
	}
	return answer
}

func (a *Answerer) listCategory(category models.MenuCategory, items []models.MenuItem) Answer {
	answer := Answer{Topic: TopicCategory}
	entries := make([]string, 0, len(items))
	for _, item := range items {
		details, err := a.catalog.Details(item.Name)
		if err != nil {
			continue
		}
		answer.Items = append(answer.Items, details)
		entry := fmt.Sprintf("%s (%s)", item.Name, price(item))
		if details.Stock == 0 {
			entry = fmt.Sprintf("%s (%s, sold out)", item.Name, price(item))
		}
		entries = append(entries, entry)
	}
	answer.Reply = fmt.Sprintf("Our %s options: %s.", strings.ToLower(string(category)), strings.Join(entries, ", "))
	return answer
}

func (a *Answerer) allergenIndex(q question, allergen string, items []models.MenuItem) Answer {
	answer := Answer{Topic: TopicAllergenIndex}

	var names []string
	if q.hasAny(withoutWords) {
		for _, item := range items {
			if !item.HasAllergen(allergen) {
				names = append(names, item.Name)
			}
		}
		sort.Strings(names)
		if len(names) == 0 {
			answer.Reply = fmt.Sprintf("Sorry, every item on our menu contains %s.", allergen)
		} else {
			answer.Reply = fmt.Sprintf("These items don't contain %s: %s.", allergen, strings.Join(names, ", "))
		}
	} else {
		inScope := make(map[string]bool, len(items))
		for _, item := range items {
			inScope[item.Name] = true
		}
		for _, item := range a.catalog.ItemsWithAllergen(allergen) {
			if inScope[item.Name] {
				names = append(names, item.Name)
			}
		}
		sort.Strings(names)
		if len(names) == 0 {
			answer.Reply = fmt.Sprintf("None of our items list %s as an allergen.", allergen)
		} else {
			answer.Reply = fmt.Sprintf("These items contain %s: %s.", allergen, strings.Join(names, ", "))
		}
	}

	for _, name := range names {
		if details, err := a.catalog.Details(name); err == nil {
			answer.Items = append(answer.Items, details)
		}
	}
	return answer
}

func (a *Answerer) overview() Answer {
	var parts []string
	for _, category := range a.catalog.Categories() {
		items, err := a.catalog.Category(category)
		if err != nil {
			continue
		}
		names := make([]string, len(items))
		for i, item := range items {
			names[i] = item.Name
		}
		parts = append(parts, fmt.Sprintf("%s: %s", category, strings.Join(names, ", ")))
	}
	return Answer{
		Topic: TopicMenu,
		Reply: "Here's our menu. " + strings.Join(parts, ". ") + ". Ask me about any dish for details.",
	}
}

func allergenSentence(item models.MenuItem) string {
	if len(item.Allergens) == 0 {
		return "It has no listed allergens."
	}
	return fmt.Sprintf("Allergens: %s.", strings.Join(item.Allergens, ", "))
}

func price(item models.MenuItem) string {
	return "$" + item.Price.StringFixed(2)
}

func joinNames(candidates []models.Candidate, conj string) string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	if len(names) <= 1 {
		return strings.Join(names, "")
	}
	return strings.Join(names[:len(names)-1], ", ") + " " + conj + " " + names[len(names)-1]
}
