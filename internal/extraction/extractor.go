// Package extraction turns guest utterances into draft orders.
package extraction

import (
	"context"
	"fmt"
	"math"
	"strings"

	"roomservice/internal/apperr"
	"roomservice/internal/matcher"
	"roomservice/internal/models"
	"roomservice/internal/monitoring"

	"go.uber.org/zap"
)

// Mention is one requested item as a strategy read it, before matching
type Mention struct {
	Raw           string
	Name          string
	Quantity      int
	Modifications []string
}

// Parse is the raw output of a strategy
type Parse struct {
	RoomNumber int
	Mentions   []Mention
	// Attach holds modifications that belong to the last line already on the draft
	Attach   []string
	Unparsed []string
	Source   models.ExtractionSource
}

func (p *Parse) empty() bool {
	return len(p.Mentions) == 0 && len(p.Attach) == 0 && p.RoomNumber == 0
}

// MenuContext is the catalog view handed to strategies
type MenuContext struct {
	Items      []models.MenuItem
	Vocabulary *matcher.Vocabulary
}

// Strategy reads an utterance into a Parse
type Strategy interface {
	Name() string
	Parse(ctx context.Context, utterance string, menu MenuContext) (*Parse, error)
}

// Menu supplies the current catalog items
type Menu interface {
	Items() []models.MenuItem
}

// Extractor runs its strategies in order and resolves the first usable
// parse against the catalog.
type Extractor struct {
	menu       Menu
	matcher    *matcher.Matcher
	strategies []Strategy
	logger     *zap.Logger
	metrics    *monitoring.Metrics
}

// NewExtractor creates an extractor. The rule parser is always appended
// as the last strategy.
func NewExtractor(menu Menu, m *matcher.Matcher, logger *zap.Logger, metrics *monitoring.Metrics, strategies ...Strategy) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	strategies = append(strategies, NewRules(m))
	return &Extractor{
		menu:       menu,
		matcher:    m,
		strategies: strategies,
		logger:     logger,
		metrics:    metrics,
	}
}

// Extract reads utterance and merges the result into a copy of current.
// It fails with apperr.ErrExtractionFailure when no strategy finds an
// item, a modification or a room number.
func (e *Extractor) Extract(ctx context.Context, utterance string, current *models.DraftOrder) (*models.DraftOrder, error) {
	items := e.menu.Items()
	menu := MenuContext{Items: items, Vocabulary: matcher.ItemVocabulary(items)}

	var parse *Parse
	for _, strategy := range e.strategies {
		p, err := strategy.Parse(ctx, utterance, menu)
		if err != nil {
			e.logger.Warn("extraction strategy failed",
				zap.String("strategy", strategy.Name()),
				zap.Error(err))
			e.metrics.RecordFallback("extraction", strategy.Name())
			continue
		}
		if p.empty() {
			e.logger.Debug("extraction strategy found nothing", zap.String("strategy", strategy.Name()))
			continue
		}
		parse = p
		break
	}

	if parse == nil || (len(parse.Mentions) == 0 && parse.RoomNumber == 0 && current.IsEmpty()) {
		return nil, fmt.Errorf("%w: no menu items found in %q", apperr.ErrExtractionFailure, utterance)
	}

	draft := current.Clone()
	if draft == nil {
		draft = &models.DraftOrder{}
	}

	if len(parse.Attach) > 0 && len(draft.Lines) > 0 {
		last := &draft.Lines[len(draft.Lines)-1]
		last.Modifications = append(last.Modifications, parse.Attach...)
	} else {
		draft.Remainder = append(draft.Remainder, parse.Attach...)
	}

	lines := make([]models.OrderLine, 0, len(parse.Mentions))
	for _, mention := range parse.Mentions {
		lines = append(lines, e.resolve(ctx, mention, menu.Vocabulary))
	}
	draft.Merge(lines)

	if parse.RoomNumber != 0 {
		draft.RoomNumber = parse.RoomNumber
	}
	draft.Remainder = append(draft.Remainder, parse.Unparsed...)
	draft.SourceUtterance = utterance
	draft.Source = parse.Source
	draft.ExtractionConfidence = confidence(lines, len(parse.Unparsed))

	e.logger.Debug("utterance extracted",
		zap.String("source", string(parse.Source)),
		zap.Int("lines", len(lines)),
		zap.Int("room", draft.RoomNumber),
		zap.Strings("remainder", parse.Unparsed))
	return draft, nil
}

func (e *Extractor) resolve(ctx context.Context, mention Mention, vocab *matcher.Vocabulary) models.OrderLine {
	res := e.matcher.Resolve(ctx, mention.Name, vocab)
	line := models.OrderLine{
		RawText:       mention.Raw,
		Quantity:      mention.Quantity,
		Modifications: cleanModifications(mention.Modifications),
		Status:        res.Status,
		Candidates:    res.Candidates,
	}
	if res.Status == models.ResolutionMatched {
		line.ItemName = res.Best.Name
	}
	return line
}

// confidence is the mean best candidate score scaled by how much of the
// utterance was placed on a line.
func confidence(lines []models.OrderLine, unparsed int) float64 {
	if len(lines) == 0 {
		return 0
	}
	var sum float64
	for _, line := range lines {
		if line.Status != models.ResolutionUnresolved && len(line.Candidates) > 0 {
			sum += line.Candidates[0].Score
		}
	}
	coverage := float64(len(lines)) / float64(len(lines)+unparsed)
	return math.Round(sum/float64(len(lines))*coverage*1e4) / 1e4
}

func cleanModifications(mods []string) []string {
	var out []string
	for _, mod := range mods {
		fields := strings.Fields(strings.TrimSpace(mod))
		for len(fields) > 0 && (strings.EqualFold(fields[0], "with") || strings.EqualFold(fields[0], "and")) {
			fields = fields[1:]
		}
		if len(fields) > 0 {
			out = append(out, strings.Join(fields, " "))
		}
	}
	return out
}
