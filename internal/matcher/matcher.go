package matcher

import (
	"context"
	"fmt"
	"math"
	"sort"

	"roomservice/internal/config"
	"roomservice/internal/models"
	"roomservice/internal/models/providers"
	"roomservice/internal/monitoring"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// polarityPenalty scales modifier matches whose negation differs
const polarityPenalty = 0.5

// Options holds the matching thresholds and score weights
type Options struct {
	High           float64
	Low            float64
	FuzzyWeight    float64
	SemanticWeight float64
	TopK           int
	TieMargin      float64
}

// OptionsFromConfig converts matcher configuration
func OptionsFromConfig(cfg config.MatcherConfig) Options {
	return Options{
		High:           cfg.HighThreshold,
		Low:            cfg.LowThreshold,
		FuzzyWeight:    cfg.FuzzyWeight,
		SemanticWeight: cfg.SemanticWeight,
		TopK:           cfg.TopK,
		TieMargin:      cfg.TieMargin,
	}
}

// DefaultOptions returns the thresholds from the default configuration
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Matcher)
}

// Resolution is the outcome of matching one phrase
type Resolution struct {
	Status     models.ResolutionStatus
	Best       models.Candidate
	Candidates []models.Candidate
	Exact      bool
}

// Matcher ranks phrases against vocabularies by a weighted blend of fuzzy
// and embedding similarity. With no embedder, or when embedding fails, the
// fuzzy score stands alone.
type Matcher struct {
	opts     Options
	embedder providers.Embedder
	cache    VectorCache
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// New creates a matcher; embedder and cache may be nil
func New(opts Options, embedder providers.Embedder, cache VectorCache, logger *zap.Logger, metrics *monitoring.Metrics) *Matcher {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TopK < 1 {
		opts.TopK = 3
	}
	return &Matcher{
		opts:     opts,
		embedder: embedder,
		cache:    cache,
		logger:   logger,
		metrics:  metrics,
	}
}

// Options returns the thresholds in use
func (m *Matcher) Options() Options {
	return m.opts
}

// Invalidate drops every cached vocabulary embedding
func (m *Matcher) Invalidate() {
	m.cache.Purge(context.Background())
	m.logger.Info("embedding cache invalidated")
}

// Warm embeds every vocabulary concurrently so the first turn does not pay for it
func (m *Matcher) Warm(ctx context.Context, vocabs ...*Vocabulary) error {
	if m.embedder == nil {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, vocab := range vocabs {
		vocab := vocab
		g.Go(func() error {
			if _, err := m.vectors(ctx, vocab.Keys()); err != nil {
				return fmt.Errorf("failed to embed vocabulary %s: %w", vocab.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// FuzzyRank ranks by fuzzy score alone and never calls a model
func (m *Matcher) FuzzyRank(phrase string, vocab *Vocabulary) []models.Candidate {
	ranked, _ := m.rank(phrase, vocab, nil, nil)
	return ranked
}

// Rank orders the vocabulary targets by combined similarity to phrase
func (m *Matcher) Rank(ctx context.Context, phrase string, vocab *Vocabulary) []models.Candidate {
	ranked, _ := m.rankWithSemantic(ctx, phrase, vocab)
	return ranked
}

// Resolve ranks phrase and classifies the best candidate against the thresholds
func (m *Matcher) Resolve(ctx context.Context, phrase string, vocab *Vocabulary) Resolution {
	ranked, exact := m.rankWithSemantic(ctx, phrase, vocab)
	return m.classify(ranked, exact)
}

func (m *Matcher) rankWithSemantic(ctx context.Context, phrase string, vocab *Vocabulary) ([]models.Candidate, bool) {
	query := vocab.canonical(phrase)
	if query == "" || vocab.Len() == 0 {
		return nil, false
	}

	var (
		qvec  []float32
		kvecs [][]float32
	)
	if m.embedder != nil {
		var err error
		qvec, kvecs, err = m.embed(ctx, query, vocab.Keys())
		if err != nil {
			m.logger.Warn("semantic scoring unavailable, using fuzzy score only",
				zap.String("vocabulary", vocab.Name()), zap.Error(err))
			m.metrics.RecordFallback("matcher", "model_failure")
			qvec, kvecs = nil, nil
		}
	}
	return m.rank(phrase, vocab, qvec, kvecs)
}

func (m *Matcher) embed(ctx context.Context, query string, keys []string) ([]float32, [][]float32, error) {
	kvecs, err := m.vectors(ctx, keys)
	if err != nil {
		return nil, nil, err
	}
	if vec, ok := m.cache.Get(ctx, query); ok {
		return vec, kvecs, nil
	}
	qvec, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	return qvec, kvecs, nil
}

// vectors returns embeddings for keys, embedding cache misses in one batch
func (m *Matcher) vectors(ctx context.Context, keys []string) ([][]float32, error) {
	out := make([][]float32, len(keys))
	var missing []string
	var missingIdx []int
	for i, key := range keys {
		if vec, ok := m.cache.Get(ctx, key); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, key)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := m.embedder.EmbedDocuments(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missing))
	}
	for j, vec := range vecs {
		m.cache.Set(ctx, missing[j], vec)
		out[missingIdx[j]] = vec
	}
	return out, nil
}

func (m *Matcher) rank(phrase string, vocab *Vocabulary, qvec []float32, kvecs [][]float32) ([]models.Candidate, bool) {
	query := vocab.canonical(phrase)
	if query == "" {
		return nil, false
	}
	semantic := qvec != nil && len(kvecs) == len(vocab.entries)
	totalWeight := m.opts.FuzzyWeight + m.opts.SemanticWeight

	best := make(map[string]float64)
	exactTarget := ""
	for i, e := range vocab.entries {
		var score float64
		if e.key == query {
			score = 1
			exactTarget = e.target
		} else {
			score = fuzzyScore(query, e.key)
			if semantic && totalWeight > 0 {
				sim := clamp(cosine(qvec, kvecs[i]))
				score = (m.opts.FuzzyWeight*score + m.opts.SemanticWeight*sim) / totalWeight
			}
			if vocab.modifier && negated(query) != negated(e.key) {
				score *= polarityPenalty
			}
		}
		if cur, seen := best[e.target]; !seen || score > cur {
			best[e.target] = score
		}
	}

	ranked := make([]models.Candidate, 0, len(best))
	for target, score := range best {
		ranked = append(ranked, models.Candidate{Name: target, Score: round(score)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked, exactTarget != ""
}

func (m *Matcher) classify(ranked []models.Candidate, exact bool) Resolution {
	if len(ranked) == 0 || ranked[0].Score < m.opts.Low {
		return Resolution{
			Status:     models.ResolutionUnresolved,
			Candidates: m.top(ranked, m.opts.Low/2),
		}
	}

	best := ranked[0]
	if best.Score >= m.opts.High {
		tied := !exact && len(ranked) > 1 &&
			ranked[1].Score >= m.opts.High &&
			best.Score-ranked[1].Score < m.opts.TieMargin
		if !tied {
			return Resolution{
				Status:     models.ResolutionMatched,
				Best:       best,
				Candidates: m.top(ranked, m.opts.Low),
				Exact:      exact,
			}
		}
	}

	return Resolution{
		Status:     models.ResolutionAmbiguous,
		Best:       best,
		Candidates: m.top(ranked, m.opts.Low),
	}
}

func (m *Matcher) top(ranked []models.Candidate, floor float64) []models.Candidate {
	var out []models.Candidate
	for _, c := range ranked {
		if len(out) == m.opts.TopK || c.Score < floor {
			break
		}
		out = append(out, c)
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
