// Package validation checks draft orders against the catalog and stock.
package validation

import (
	"context"
	"fmt"
	"strings"

	"roomservice/internal/config"
	"roomservice/internal/matcher"
	"roomservice/internal/models"

	"go.uber.org/zap"
)

// Catalog is the read-only catalog view the validator needs
type Catalog interface {
	Item(name string) (models.MenuItem, error)
	Items() []models.MenuItem
	Stock(name string) (int, error)
	Category(name string) ([]models.MenuItem, error)
}

// Options holds validation limits
type Options struct {
	RoomMin          int
	RoomMax          int
	MaxSubstitutions int
}

// OptionsFromConfig converts validation configuration
func OptionsFromConfig(cfg config.ValidationConfig) Options {
	return Options{RoomMin: cfg.RoomMin, RoomMax: cfg.RoomMax, MaxSubstitutions: cfg.MaxSubstitutions}
}

// Validator checks every line of a draft in one pass. It never writes to
// the catalog, so validating the same draft twice gives the same answer.
type Validator struct {
	catalog Catalog
	matcher *matcher.Matcher
	opts    Options
	logger  *zap.Logger
}

// New creates a validator
func New(catalog Catalog, m *matcher.Matcher, opts Options, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{catalog: catalog, matcher: m, opts: opts, logger: logger}
}

// Validate returns a copy of draft with item names and modifications in
// catalog spelling, plus every issue found. Issues are grouped by line in
// line order; the room check comes last.
func (v *Validator) Validate(ctx context.Context, draft *models.DraftOrder) (*models.DraftOrder, []models.ValidationIssue) {
	approved := draft.Clone()
	if approved == nil {
		approved = &models.DraftOrder{}
	}

	var issues []models.ValidationIssue
	requested := make(map[string]int)

	for i := range approved.Lines {
		line := &approved.Lines[i]

		item, issue, ok := v.checkItem(ctx, i, line)
		if !ok {
			issues = append(issues, issue)
			continue
		}
		line.ItemName = item.Name
		line.Status = models.ResolutionMatched

		issues = append(issues, v.checkModifications(ctx, i, line, item)...)

		if issue, ok := v.checkQuantity(ctx, i, line, item, requested); !ok {
			issues = append(issues, issue)
		}
	}

	if issue, ok := v.checkRoom(approved.RoomNumber); !ok {
		issues = append(issues, issue)
	}

	if len(issues) > 0 {
		v.logger.Debug("draft has issues", zap.Int("issues", len(issues)), zap.Int("lines", len(approved.Lines)))
	}
	return approved, issues
}

func (v *Validator) checkItem(ctx context.Context, i int, line *models.OrderLine) (models.MenuItem, models.ValidationIssue, bool) {
	if line.Status == models.ResolutionMatched && line.ItemName != "" {
		if item, err := v.catalog.Item(line.ItemName); err == nil {
			return item, models.ValidationIssue{}, true
		}
	}

	subject := line.RawText
	if subject == "" {
		subject = line.ItemName
	}

	if line.Status == models.ResolutionAmbiguous && len(line.Candidates) > 0 {
		return models.MenuItem{}, models.ValidationIssue{
			Kind:       models.IssueAmbiguousItem,
			Line:       i,
			Subject:    subject,
			Candidates: line.Candidates,
			Message:    fmt.Sprintf("%q could be %s.", subject, candidateList(line.Candidates, "or")),
		}, false
	}

	candidates := line.Candidates
	if len(candidates) == 0 && line.Status != models.ResolutionRejected {
		candidates = v.suggest(ctx, subject)
	}
	message := fmt.Sprintf("We don't have %q on the menu.", subject)
	if len(candidates) > 0 {
		message += fmt.Sprintf(" Did you mean %s?", candidateList(candidates, "or"))
	}
	return models.MenuItem{}, models.ValidationIssue{
		Kind:       models.IssueUnknownItem,
		Line:       i,
		Subject:    subject,
		Candidates: candidates,
		Message:    message,
	}, false
}

// suggest returns the closest menu items to an unknown phrase
func (v *Validator) suggest(ctx context.Context, phrase string) []models.Candidate {
	if strings.TrimSpace(phrase) == "" {
		return nil
	}
	ranked := v.matcher.Rank(ctx, phrase, matcher.ItemVocabulary(v.catalog.Items()))
	limit := v.matcher.Options().TopK
	floor := v.matcher.Options().Low / 2
	var out []models.Candidate
	for _, c := range ranked {
		if len(out) == limit || c.Score < floor {
			break
		}
		out = append(out, c)
	}
	return out
}

func (v *Validator) checkModifications(ctx context.Context, i int, line *models.OrderLine, item models.MenuItem) []models.ValidationIssue {
	if len(line.Modifications) == 0 {
		return nil
	}

	var issues []models.ValidationIssue
	var vocab *matcher.Vocabulary
	if item.ModificationsAllowed && len(item.AvailableModifications) > 0 {
		vocab = matcher.ModificationVocabulary(item)
	}

	canonical := make([]string, 0, len(line.Modifications))
	seen := make(map[string]bool)
	for _, mod := range line.Modifications {
		if spelled, ok := v.resolveModification(ctx, item, vocab, mod); ok {
			if !seen[spelled] {
				seen[spelled] = true
				canonical = append(canonical, spelled)
			}
			continue
		}

		issue := models.ValidationIssue{
			Kind:    models.IssueUnsupportedModification,
			Line:    i,
			Subject: mod,
		}
		if vocab == nil {
			issue.Message = fmt.Sprintf("%s can't be modified, so %q isn't possible.", item.Name, mod)
		} else {
			issue.Candidates = v.matcher.Rank(ctx, mod, vocab)
			issue.Message = fmt.Sprintf("%q isn't available for %s. Options are %s.", mod, item.Name, candidateList(issue.Candidates, "and"))
		}
		issues = append(issues, issue)
		canonical = append(canonical, mod)
	}
	line.Modifications = canonical
	return issues
}

func (v *Validator) resolveModification(ctx context.Context, item models.MenuItem, vocab *matcher.Vocabulary, mod string) (string, bool) {
	if spelled, ok := item.Modification(mod); ok {
		return spelled, true
	}
	if vocab == nil {
		return "", false
	}
	res := v.matcher.Resolve(ctx, mod, vocab)
	if res.Status != models.ResolutionMatched {
		return "", false
	}
	return res.Best.Name, true
}

func (v *Validator) checkQuantity(ctx context.Context, i int, line *models.OrderLine, item models.MenuItem, requested map[string]int) (models.ValidationIssue, bool) {
	if line.Quantity < 1 {
		return models.ValidationIssue{
			Kind:    models.IssueInvalidQuantity,
			Line:    i,
			Subject: item.Name,
			Message: fmt.Sprintf("%d isn't a valid quantity for %s.", line.Quantity, item.Name),
		}, false
	}

	stock, err := v.catalog.Stock(item.Name)
	if err != nil {
		stock = 0
	}
	already := requested[item.Name]
	requested[item.Name] = already + line.Quantity
	if already+line.Quantity <= stock {
		return models.ValidationIssue{}, true
	}

	remaining := stock - already
	if remaining < 0 {
		remaining = 0
	}

	var candidates []models.Candidate
	if remaining > 0 {
		candidates = append(candidates, models.Candidate{Name: item.Name, Score: 1, Quantity: remaining})
	}
	substitutes := v.substitutes(ctx, item, line.Quantity)
	candidates = append(candidates, substitutes...)

	message := fmt.Sprintf("We only have %d %s left.", remaining, item.Name)
	if remaining == 0 {
		message = fmt.Sprintf("%s is sold out.", item.Name)
	}
	if len(substitutes) > 0 {
		message += fmt.Sprintf(" You could try %s.", candidateList(substitutes, "or"))
	}
	return models.ValidationIssue{
		Kind:       models.IssueInsufficientInventory,
		Line:       i,
		Subject:    item.Name,
		Candidates: candidates,
		Message:    message,
	}, false
}

// substitutes ranks in-stock items from the same category by similarity
// to the unavailable one.
func (v *Validator) substitutes(ctx context.Context, item models.MenuItem, quantity int) []models.Candidate {
	if v.opts.MaxSubstitutions < 1 {
		return nil
	}
	siblings, err := v.catalog.Category(item.Category)
	if err != nil {
		return nil
	}

	stockOf := make(map[string]int)
	var names []string
	for _, s := range siblings {
		if s.Name == item.Name || !s.IsInCategory(item.Category) {
			continue
		}
		if stock, err := v.catalog.Stock(s.Name); err == nil && stock > 0 {
			names = append(names, s.Name)
			stockOf[s.Name] = stock
		}
	}
	if len(names) == 0 {
		return nil
	}

	ranked := v.matcher.Rank(ctx, item.Name, matcher.Names("substitutes:"+item.Category, names...))
	var out []models.Candidate
	for _, c := range ranked {
		if len(out) == v.opts.MaxSubstitutions {
			break
		}
		c.Quantity = min(quantity, stockOf[c.Name])
		out = append(out, c)
	}
	return out
}

func (v *Validator) checkRoom(room int) (models.ValidationIssue, bool) {
	switch {
	case room == 0:
		return models.ValidationIssue{
			Kind:    models.IssueInvalidRoom,
			Line:    models.RoomLine,
			Subject: "room_number",
			Message: "Which room should we deliver to?",
		}, false
	case room < v.opts.RoomMin || room > v.opts.RoomMax:
		return models.ValidationIssue{
			Kind:    models.IssueInvalidRoom,
			Line:    models.RoomLine,
			Subject: "room_number",
			Message: fmt.Sprintf("Room %d isn't a valid room number. Rooms run from %d to %d.", room, v.opts.RoomMin, v.opts.RoomMax),
		}, false
	}
	return models.ValidationIssue{}, true
}

func candidateList(candidates []models.Candidate, conj string) string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	switch len(names) {
	case 0:
		return "none"
	case 1:
		return names[0]
	case 2:
		return names[0] + " " + conj + " " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " " + conj + " " + names[len(names)-1]
	}
}
