package extraction

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"roomservice/internal/matcher"
	"roomservice/internal/models"
)

var (
	roomPattern    = regexp.MustCompile(`(?i)\b(?:(?:to|for|in|at)\s+)?room\s*(?:number\s*|no\.?\s*)?#?\s*(\d+)`)
	segmentPattern = regexp.MustCompile(`(?i)\s*(?:,|;|&|\band\b|\bplus\b|\balso\b|\bas well as\b)\s*`)
)

var quantityWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "single": 1, "two": 2, "couple": 2, "pair": 2,
	"three": 3, "four": 4, "five": 5, "six": 6, "seven": 7, "eight": 8,
	"nine": 9, "ten": 10, "eleven": 11, "twelve": 12, "dozen": 12,
}

// modifierWords start a modification phrase
var modifierWords = map[string]bool{
	"with": true, "without": true, "extra": true, "add": true, "no": true,
	"hold": true, "minus": true, "skip": true,
}

var fillerWords = map[string]bool{
	"i": true, "id": true, "im": true, "ill": true, "we": true, "wed": true, "well": true,
	"like": true, "love": true, "want": true, "would": true, "please": true, "can": true,
	"could": true, "may": true, "get": true, "me": true, "us": true, "have": true,
	"send": true, "bring": true, "deliver": true, "order": true, "to": true, "for": true,
	"my": true, "our": true, "the": true, "some": true, "of": true, "just": true,
	"thanks": true, "thank": true, "you": true, "need": true, "on": true, "up": true,
	"over": true, "right": true, "away": true, "now": true, "room": true, "service": true,
	"hi": true, "hello": true, "then": true, "will": true, "take": true, "let": true,
	"be": true, "it": true, "too": true, "also": true, "and": true, "another": true,
	"more": true, "as": true,
}

func quantityOf(tok string) (int, bool) {
	if n, ok := quantityWords[tok]; ok {
		return n, true
	}
	if n, err := strconv.Atoi(tok); err == nil && n >= 0 && n < 1000 {
		return n, true
	}
	return 0, false
}

// ParseQuantity finds the first explicit quantity in a short reply such as
// "make it 3" or "just two". Articles do not count.
func ParseQuantity(text string) (int, bool) {
	for _, tok := range matcher.Tokens(text) {
		if tok == "a" || tok == "an" {
			continue
		}
		if n, ok := quantityOf(tok); ok {
			return n, true
		}
	}
	return 0, false
}

// ParseRoom reads a room number from "room 312" style text, or from a reply
// that is a single number.
func ParseRoom(text string) (int, bool) {
	if m := roomPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	room, found := 0, false
	for _, tok := range matcher.Tokens(text) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if found {
			return 0, false
		}
		room, found = n, true
	}
	return room, found
}

// Rules is the deterministic parser used when no model is available or
// the model strategy fails.
type Rules struct {
	matcher *matcher.Matcher
}

// NewRules creates a rule based strategy
func NewRules(m *matcher.Matcher) *Rules {
	return &Rules{matcher: m}
}

func (r *Rules) Name() string { return string(models.SourceRules) }

func (r *Rules) Parse(_ context.Context, utterance string, menu MenuContext) (*Parse, error) {
	parse := &Parse{Source: models.SourceRules}

	text := utterance
	if m := roomPattern.FindStringSubmatchIndex(text); m != nil {
		parse.RoomNumber, _ = strconv.Atoi(text[m[2]:m[3]])
		text = text[:m[0]] + " " + text[m[1]:]
	}

	byName := make(map[string]models.MenuItem, len(menu.Items))
	for _, item := range menu.Items {
		byName[item.Name] = item
	}

	for _, segment := range segmentPattern.Split(text, -1) {
		tokens := matcher.Tokens(segment)
		if len(tokens) == 0 {
			continue
		}
		r.parseSegment(parse, tokens, menu.Vocabulary, byName)
	}
	return parse, nil
}

func (r *Rules) parseSegment(parse *Parse, tokens []string, vocab *matcher.Vocabulary, byName map[string]models.MenuItem) {
	split := len(tokens)
	for i, tok := range tokens {
		if modifierWords[tok] {
			split = i
			break
		}
	}
	itemPart, modPart := tokens[:split], tokens[split:]

	quantity, quantified := 0, false
	var content []string
	for _, tok := range itemPart {
		if n, ok := quantityOf(tok); ok {
			quantity, quantified = n, true
			continue
		}
		if fillerWords[tok] {
			continue
		}
		content = append(content, tok)
	}
	if !quantified {
		quantity = 1
	}

	chunks := modifierChunks(modPart)

	if len(content) == 0 {
		if len(chunks) == 0 {
			if quantified {
				parse.Unparsed = append(parse.Unparsed, strings.Join(tokens, " "))
			}
			return
		}
		// "with no mayo" continues the previous item
		mods, items := r.splitItemChunks(chunks, nil, vocab)
		r.attach(parse, mods)
		parse.Mentions = append(parse.Mentions, items...)
		return
	}

	window, score, leftover := r.bestWindow(content, vocab)
	floor := r.matcher.Options().Low
	if len(strings.Fields(window)) == 1 {
		// a lone unquantified word needs a near-exact hit, "try" is one edit from "fry"
		floor = r.matcher.Options().High
	}
	if score < floor && !quantified {
		parse.Unparsed = append(parse.Unparsed, strings.Join(tokens, " "))
		return
	}

	mention := Mention{
		Raw:      strings.Join(tokens, " "),
		Name:     window,
		Quantity: quantity,
	}

	item, known := byName[topName(r.matcher.FuzzyRank(window, vocab))]
	var modVocab *matcher.Vocabulary
	if known {
		modVocab = matcher.ModificationVocabulary(item)
	}

	// words left over from the item phrase may still be a modification
	// ("caesar salad dressing on the side")
	if len(leftover) > 0 {
		phrase := strings.Join(leftover, " ")
		if modVocab != nil && modVocab.Len() > 0 && topScore(r.matcher.FuzzyRank(phrase, modVocab)) >= r.matcher.Options().Low {
			chunks = append([]string{phrase}, chunks...)
		} else {
			parse.Unparsed = append(parse.Unparsed, phrase)
		}
	}

	mods, extra := r.splitItemChunks(chunks, modVocab, vocab)
	mention.Modifications = mods
	parse.Mentions = append(parse.Mentions, mention)
	parse.Mentions = append(parse.Mentions, extra...)
}

// splitItemChunks separates modification chunks from chunks that name
// another menu item ("a burger with fries").
func (r *Rules) splitItemChunks(chunks []string, modVocab, itemVocab *matcher.Vocabulary) ([]string, []Mention) {
	var mods []string
	var items []Mention
	high := r.matcher.Options().High
	for _, chunk := range chunks {
		body := strings.TrimSpace(strings.TrimPrefix(chunk, "with "))
		if body != chunk && body != "" && !modifierWords[strings.Fields(body)[0]] {
			itemScore := topScore(r.matcher.FuzzyRank(body, itemVocab))
			modScore := 0.0
			if modVocab != nil && modVocab.Len() > 0 {
				modScore = topScore(r.matcher.FuzzyRank(body, modVocab))
			}
			if itemScore >= high && itemScore > modScore {
				quantity, name := leadingQuantity(body)
				items = append(items, Mention{Raw: chunk, Name: name, Quantity: quantity})
				continue
			}
		}
		mods = append(mods, chunk)
	}
	return mods, items
}

func (r *Rules) attach(parse *Parse, mods []string) {
	if n := len(parse.Mentions); n > 0 {
		parse.Mentions[n-1].Modifications = append(parse.Mentions[n-1].Modifications, mods...)
		return
	}
	parse.Attach = append(parse.Attach, mods...)
}

// bestWindow finds the run of up to four content words that best matches
// an item name. Longer windows win ties.
func (r *Rules) bestWindow(content []string, vocab *matcher.Vocabulary) (string, float64, []string) {
	bestStart, bestEnd, bestScore := 0, len(content), -1.0
	for size := 1; size <= 4 && size <= len(content); size++ {
		for start := 0; start+size <= len(content); start++ {
			phrase := strings.Join(content[start:start+size], " ")
			score := topScore(r.matcher.FuzzyRank(phrase, vocab))
			if score >= bestScore {
				bestStart, bestEnd, bestScore = start, start+size, score
			}
		}
	}
	leftover := append(append([]string(nil), content[:bestStart]...), content[bestEnd:]...)
	return strings.Join(content[bestStart:bestEnd], " "), bestScore, leftover
}

// modifierChunks splits "with extra bacon no mayo" into one phrase per
// modification word. A bare "with" or "add" joins the following phrase.
func modifierChunks(tokens []string) []string {
	var chunks [][]string
	for _, tok := range tokens {
		n := len(chunks)
		joinable := n > 0 && len(chunks[n-1]) == 1 && (chunks[n-1][0] == "with" || chunks[n-1][0] == "add")
		if modifierWords[tok] && !joinable {
			chunks = append(chunks, []string{tok})
			continue
		}
		if n == 0 {
			chunks = append(chunks, []string{tok})
			continue
		}
		chunks[n-1] = append(chunks[n-1], tok)
	}

	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if len(c) == 1 && (c[0] == "with" || c[0] == "add") {
			continue
		}
		out = append(out, strings.Join(c, " "))
	}
	return out
}

func leadingQuantity(phrase string) (int, string) {
	fields := strings.Fields(phrase)
	if len(fields) > 1 {
		if n, ok := quantityOf(fields[0]); ok {
			return n, strings.Join(fields[1:], " ")
		}
	}
	return 1, phrase
}

func topName(ranked []models.Candidate) string {
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0].Name
}

func topScore(ranked []models.Candidate) float64 {
	if len(ranked) == 0 {
		return 0
	}
	return ranked[0].Score
}
