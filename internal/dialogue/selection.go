package dialogue

import (
	"context"
	"strings"

	"roomservice/internal/extraction"
	"roomservice/internal/matcher"
	"roomservice/internal/models"
)

// selectionFiller are words dropped from a reply before it is matched
// against the offered candidates
var selectionFiller = map[string]bool{
	"the": true, "a": true, "an": true, "one": true, "ones": true, "please": true,
	"i": true, "ill": true, "id": true, "im": true, "like": true, "take": true,
	"have": true, "want": true, "that": true, "this": true, "it": true, "go": true,
	"with": true, "lets": true, "let": true, "us": true, "me": true, "make": true,
	"would": true, "prefer": true, "instead": true, "option": true, "just": true,
	"thanks": true, "thank": true, "you": true, "yes": true, "ok": true, "okay": true,
	"sure": true, "then": true, "rather": true, "of": true,
}

var dismissWords = map[string]bool{
	"remove": true, "skip": true, "drop": true, "none": true, "neither": true,
	"no": true, "nope": true, "nothing": true, "leave": true, "without": true,
}

var ordinals = map[string]int{
	"first": 0, "1st": 0, "second": 1, "2nd": 1, "third": 2, "3rd": 2,
}

// resolve applies the guest's reply to the first issue of the current
// stage. It returns the retry key of that issue and whether the reply
// settled it.
func (m *Machine) resolve(ctx context.Context, conv *ConversationState, text string) (string, bool) {
	issue, ok := stageIssue(conv)
	if !ok || conv.Draft == nil {
		return "", true
	}
	key := issueKey(issue)

	switch issue.Kind {
	case models.IssueAmbiguousItem, models.IssueUnknownItem:
		return key, m.resolveItem(ctx, conv.Draft, issue, text)
	case models.IssueUnsupportedModification:
		return key, m.resolveModification(conv.Draft, issue, text)
	case models.IssueInsufficientInventory:
		return key, m.resolveStock(conv.Draft, issue, text)
	case models.IssueInvalidQuantity:
		return key, resolveQuantity(conv.Draft, issue, text)
	case models.IssueInvalidRoom:
		room, ok := extraction.ParseRoom(text)
		if !ok || room < 1 {
			return key, false
		}
		conv.Draft.RoomNumber = room
		conv.Room = room
		return key, true
	}
	return key, false
}

func (m *Machine) resolveItem(ctx context.Context, draft *models.DraftOrder, issue models.ValidationIssue, text string) bool {
	line := lineAt(draft, issue.Line)
	if line == nil {
		return true
	}

	if name, ok := m.pick(text, issue.Candidates); ok {
		setItem(line, name)
		return true
	}
	if dismissive(text) {
		draft.RemoveLine(issue.Line)
		return true
	}

	phrase := stripFiller(text)
	if phrase == "" || m.Menu == nil {
		return false
	}
	res := m.Matcher.Resolve(ctx, phrase, matcher.ItemVocabulary(m.Menu.Items()))
	if res.Status != models.ResolutionMatched {
		return false
	}
	setItem(line, res.Best.Name)
	return true
}

func (m *Machine) resolveModification(draft *models.DraftOrder, issue models.ValidationIssue, text string) bool {
	line := lineAt(draft, issue.Line)
	if line == nil {
		return true
	}
	idx := -1
	for i, mod := range line.Modifications {
		if strings.EqualFold(mod, issue.Subject) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return true
	}

	if dismissive(text) || (len(issue.Candidates) == 0 && interpretConfirmation(text) == EventAffirmed) {
		line.Modifications = append(line.Modifications[:idx], line.Modifications[idx+1:]...)
		return true
	}
	if name, ok := m.pick(text, issue.Candidates); ok {
		line.Modifications[idx] = name
		return true
	}
	return false
}

func (m *Machine) resolveStock(draft *models.DraftOrder, issue models.ValidationIssue, text string) bool {
	line := lineAt(draft, issue.Line)
	if line == nil {
		return true
	}

	if n, ok := extraction.ParseQuantity(text); ok {
		if n == 0 {
			draft.RemoveLine(issue.Line)
		} else {
			line.Quantity = n
		}
		return true
	}

	var substitutes []models.Candidate
	for _, c := range issue.Candidates {
		if c.Name != issue.Subject {
			substitutes = append(substitutes, c)
		}
	}
	if name, ok := m.pick(text, substitutes); ok {
		for _, c := range substitutes {
			if c.Name == name {
				substitute(line, c)
			}
		}
		return true
	}

	if dismissive(text) {
		draft.RemoveLine(issue.Line)
		return true
	}
	if interpretConfirmation(text) == EventAffirmed && len(issue.Candidates) > 0 {
		first := issue.Candidates[0]
		if first.Name == issue.Subject {
			line.Quantity = first.Quantity
		} else {
			substitute(line, first)
		}
		return true
	}
	return false
}

func resolveQuantity(draft *models.DraftOrder, issue models.ValidationIssue, text string) bool {
	line := lineAt(draft, issue.Line)
	if line == nil {
		return true
	}
	if n, ok := extraction.ParseQuantity(text); ok && n > 0 {
		line.Quantity = n
		return true
	}
	if dismissive(text) {
		draft.RemoveLine(issue.Line)
		return true
	}
	return false
}

// pick chooses one of the offered candidates by ordinal ("the second one")
// or by name.
func (m *Machine) pick(text string, candidates []models.Candidate) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	tokens := matcher.Tokens(text)
	for _, tok := range tokens {
		if i, ok := ordinals[tok]; ok && i < len(candidates) {
			return candidates[i].Name, true
		}
		if tok == "last" {
			return candidates[len(candidates)-1].Name, true
		}
	}

	phrase := stripFiller(text)
	if phrase == "" || m.Matcher == nil {
		return "", false
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	ranked := m.Matcher.FuzzyRank(phrase, matcher.Names("selection", names...))
	opts := m.Matcher.Options()
	if len(ranked) == 0 || ranked[0].Score < opts.Low {
		return "", false
	}
	if len(ranked) > 1 && ranked[0].Score-ranked[1].Score < opts.TieMargin {
		return "", false
	}
	return ranked[0].Name, true
}

// dismissive reports whether the reply only declines ("no", "skip it")
func dismissive(text string) bool {
	tokens := matcher.Tokens(text)
	found := false
	for _, tok := range tokens {
		switch {
		case dismissWords[tok]:
			found = true
		case selectionFiller[tok]:
		default:
			return false
		}
	}
	return found
}

func stripFiller(text string) string {
	var kept []string
	for _, tok := range matcher.Tokens(text) {
		if !selectionFiller[tok] {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

func lineAt(draft *models.DraftOrder, i int) *models.OrderLine {
	if i < 0 || i >= len(draft.Lines) {
		return nil
	}
	return &draft.Lines[i]
}

func setItem(line *models.OrderLine, name string) {
	line.ItemName = name
	line.Status = models.ResolutionMatched
	line.Candidates = nil
}

// substitute swaps a sold out item for another one; modifications belong
// to the old item and are dropped.
func substitute(line *models.OrderLine, c models.Candidate) {
	setItem(line, c.Name)
	if c.Quantity > 0 {
		line.Quantity = c.Quantity
	}
	line.Modifications = nil
}
