// Package intent classifies guest utterances into the fixed intent set.
package intent

import (
	"context"
	"math"

	"roomservice/internal/models"
	"roomservice/internal/monitoring"

	"go.uber.org/zap"
)

// Menu supplies the catalog items used to detect item mentions
type Menu interface {
	Items() []models.MenuItem
}

// Result represents one classification outcome
type Result struct {
	Intent      models.Intent             `json:"intent"`
	Confidence  float64                   `json:"confidence"`
	Scores      map[models.Intent]float64 `json:"scores,omitempty"`
	Source      string                    `json:"source"`
	Cancel      bool                      `json:"cancel,omitempty"`
	Explanation string                    `json:"explanation"`
}

// Classifier runs the override table and then each strategy in order
// until one is confident.
type Classifier struct {
	menu       Menu
	strategies []Strategy
	threshold  float64
	cues       cues
	overrides  []preparedOverride
	logger     *zap.Logger
	metrics    *monitoring.Metrics
}

// NewClassifier creates a classifier. A KeywordOnly strategy is appended
// when the chain does not already end with one.
func NewClassifier(menu Menu, threshold float64, keywords Keywords, logger *zap.Logger, metrics *monitoring.Metrics, strategies ...Strategy) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n := len(strategies); n == 0 || strategies[n-1].Name() != (KeywordOnly{}).Name() {
		strategies = append(strategies, KeywordOnly{})
	}
	return &Classifier{
		menu:       menu,
		strategies: strategies,
		threshold:  threshold,
		cues:       newCues(keywords),
		overrides:  defaultOverrides,
		logger:     logger,
		metrics:    metrics,
	}
}

// Threshold returns the confidence below which results become unknown
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Classify labels text. It never fails: strategy errors are logged and the
// chain moves on, and a result below the threshold is reported as unknown.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	u := newUtterance(text)

	if o, ok := matchOverride(u, c.overrides); ok {
		return c.finish(Result{Intent: o.intent, Confidence: 1, Source: "override", Cancel: o.cancel})
	}

	var items []string
	if c.menu != nil {
		items = menuTerms(c.menu.Items())
	}

	best := Result{Intent: models.IntentUnknown, Source: "none"}
	for _, strategy := range c.strategies {
		raw, err := strategy.Scores(ctx, text)
		if err != nil {
			c.logger.Warn("intent strategy failed",
				zap.String("strategy", strategy.Name()),
				zap.Error(err))
			c.metrics.RecordFallback("intent", strategy.Name())
			continue
		}

		scores := adjust(raw, u, c.cues, items)
		label, confidence := top(scores)
		c.logger.Debug("intent scored",
			zap.String("strategy", strategy.Name()),
			zap.String("intent", string(label)),
			zap.Float64("confidence", confidence))

		if best.Source == "none" || confidence > best.Confidence {
			best = Result{Intent: label, Confidence: confidence, Scores: scores, Source: strategy.Name()}
		}
		if best.Confidence >= c.threshold {
			break
		}
	}

	if best.Confidence < c.threshold {
		best.Intent = models.IntentUnknown
	}
	return c.finish(best)
}

func (c *Classifier) finish(r Result) Result {
	r.Confidence = math.Round(r.Confidence*1e4) / 1e4
	r.Explanation = r.Intent.Explanation()
	c.metrics.RecordIntent(string(r.Intent), r.Source)
	return r
}

// top picks the highest score, breaking ties by label priority
func top(scores map[models.Intent]float64) (models.Intent, float64) {
	label, best := models.IntentUnknown, -1.0
	for _, l := range models.Intents {
		if s := scores[l]; s > best {
			label, best = l, s
		}
	}
	return label, best
}
