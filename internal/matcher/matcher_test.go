package matcher

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"roomservice/internal/catalog/catalogtest"
	"roomservice/internal/models"
	"roomservice/internal/models/providers"
	"roomservice/internal/models/providers/providertest"
	"roomservice/internal/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSemanticMatcher(t *testing.T) (*Matcher, *Vocabulary) {
	t.Helper()
	store := catalogtest.New(t)
	m := New(DefaultOptions(), providers.NewHashingEmbedder(1024), nil, nil, nil)
	return m, ItemVocabulary(store.Items())
}

func TestExactNamesResolveToThemselves(t *testing.T) {
	store := catalogtest.New(t)
	m, vocab := newSemanticMatcher(t)
	ctx := context.Background()

	for _, item := range store.Items() {
		res := m.Resolve(ctx, item.Name, vocab)
		require.Equal(t, models.ResolutionMatched, res.Status, item.Name)
		assert.Equal(t, item.Name, res.Best.Name)
		assert.True(t, res.Exact)
		assert.Equal(t, 1.0, res.Best.Score)
		assert.GreaterOrEqual(t, res.Best.Score, 0.85)
		if len(res.Candidates) > 1 {
			assert.Less(t, res.Candidates[1].Score, res.Best.Score, item.Name)
		}
	}
}

func TestCaseAndPunctuationAreIgnored(t *testing.T) {
	m, vocab := newSemanticMatcher(t)

	res := m.Resolve(context.Background(), "  CLUB sandwich!! ", vocab)
	assert.Equal(t, models.ResolutionMatched, res.Status)
	assert.Equal(t, "Club Sandwich", res.Best.Name)
}

func TestPluralAliasResolves(t *testing.T) {
	m, vocab := newSemanticMatcher(t)

	res := m.Resolve(context.Background(), "waters", vocab)
	require.Equal(t, models.ResolutionMatched, res.Status)
	assert.Equal(t, "Still Water", res.Best.Name)
}

func TestSharedWordIsAmbiguous(t *testing.T) {
	store := catalogtest.New(t)
	m := New(DefaultOptions(), nil, nil, nil, nil)

	res := m.Resolve(context.Background(), "salad", ItemVocabulary(store.Items()))
	require.Equal(t, models.ResolutionAmbiguous, res.Status)

	names := []string{res.Candidates[0].Name, res.Candidates[1].Name}
	assert.ElementsMatch(t, []string{"Caesar Salad", "Side Salad"}, names)
	assert.LessOrEqual(t, len(res.Candidates), 3)
}

func TestUnknownPhraseIsUnresolved(t *testing.T) {
	m, vocab := newSemanticMatcher(t)

	res := m.Resolve(context.Background(), "helicopter", vocab)
	assert.Equal(t, models.ResolutionUnresolved, res.Status)
}

func TestModificationMatching(t *testing.T) {
	store := catalogtest.New(t)
	salad, err := store.Item("Caesar Salad")
	require.NoError(t, err)
	vocab := ModificationVocabulary(salad)
	m := New(DefaultOptions(), providers.NewHashingEmbedder(1024), nil, nil, nil)
	ctx := context.Background()

	for _, phrase := range []string{"anchovies", "with anchovies", "Add Anchovies"} {
		res := m.Resolve(ctx, phrase, vocab)
		require.Equal(t, models.ResolutionMatched, res.Status, phrase)
		assert.Equal(t, "add anchovies", res.Best.Name, phrase)
	}

	res := m.Resolve(ctx, "without croutons", vocab)
	require.Equal(t, models.ResolutionMatched, res.Status)
	assert.Equal(t, "no croutons", res.Best.Name)

	res = m.Resolve(ctx, "no anchovies", vocab)
	assert.False(t, res.Status == models.ResolutionMatched && res.Best.Name == "add anchovies")

	res = m.Resolve(ctx, "add pineapple", vocab)
	assert.NotEqual(t, models.ResolutionMatched, res.Status)
}

func TestEmbeddingFailureFallsBackToFuzzy(t *testing.T) {
	store := catalogtest.New(t)
	metrics := monitoring.NewMetrics()
	m := New(DefaultOptions(), providertest.FailingEmbedder{Err: errors.New("quota")}, nil, nil, metrics)

	res := m.Resolve(context.Background(), "caesar salad", ItemVocabulary(store.Items()))
	assert.Equal(t, models.ResolutionMatched, res.Status)
	assert.Equal(t, "Caesar Salad", res.Best.Name)

	assert.Error(t, m.Warm(context.Background(), ItemVocabulary(store.Items())))
}

func TestVocabularyEmbeddingsAreCached(t *testing.T) {
	store := catalogtest.New(t)
	vocab := ItemVocabulary(store.Items())
	counter := &providertest.CountingEmbedder{Embedder: providers.NewHashingEmbedder(256)}
	m := New(DefaultOptions(), counter, nil, nil, nil)
	ctx := context.Background()

	require.NoError(t, m.Warm(ctx, vocab))
	assert.Equal(t, vocab.Len(), counter.Texts())

	m.Resolve(ctx, "club sandwich", vocab)
	assert.Equal(t, vocab.Len(), counter.Texts(), "cached keys and exact queries need no new embeddings")

	m.Resolve(ctx, "club sandwhich", vocab)
	assert.Equal(t, vocab.Len()+1, counter.Texts())

	m.Invalidate()
	m.Resolve(ctx, "club sandwich", vocab)
	assert.Equal(t, 2*vocab.Len()+1, counter.Texts())
}

func TestMatchingIsDeterministic(t *testing.T) {
	m, vocab := newSemanticMatcher(t)
	ctx := context.Background()

	first := m.Rank(ctx, "choc cake", vocab)
	second := m.Rank(ctx, "choc cake", vocab)
	assert.Equal(t, first, second)
	require.NotEmpty(t, first)
	assert.Equal(t, "Chocolate Cake", first[0].Name)
}

func TestFuzzyScore(t *testing.T) {
	assert.Equal(t, 1.0, FuzzyScore("The Club Sandwich", "club sandwich"))
	assert.InDelta(t, 0.95, FuzzyScore("sandwich", "club sandwich"), 1e-9)
	assert.Greater(t, FuzzyScore("ceasar salad", "caesar salad"), 0.8)
	assert.Less(t, FuzzyScore("coffee", "cheesecake"), 0.5)
	assert.Equal(t, 0.0, FuzzyScore("", "water"))
}

func TestSingular(t *testing.T) {
	cases := map[string]string{
		"waters":     "water",
		"anchovies":  "anchovy",
		"pies":       "pie",
		"sandwiches": "sandwich",
		"glass":      "glass",
		"tomatoes":   "tomato",
		"fries":      "fry",
		"oj":         "oj",
	}
	for in, want := range cases {
		assert.Equal(t, want, Singular(in), in)
	}
}

func TestTieredCacheReadsThrough(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	remote.Set(ctx, "water", []float32{1, 0})
	tiered := NewTieredCache(remote)

	vec, ok := tiered.Get(ctx, "water")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, 1, tiered.local.Len())

	tiered.Purge(ctx)
	_, ok = tiered.Get(ctx, "water")
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("ROOMSERVICE_TEST_REDIS")
	if addr == "" {
		t.Skip("ROOMSERVICE_TEST_REDIS not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	cache, err := NewRedisCache(ctx, client, "roomservice-test", time.Minute, nil)
	require.NoError(t, err)

	cache.Set(ctx, "still water", []float32{0.5, 0.25})
	vec, ok := cache.Get(ctx, "still water")
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, 0.25}, vec)

	cache.Purge(ctx)
	_, ok = cache.Get(ctx, "still water")
	assert.False(t, ok)
}

func TestFallbackMetricRecorded(t *testing.T) {
	metrics := monitoring.NewMetrics()
	m := New(DefaultOptions(), providertest.FailingEmbedder{Err: errors.New("down")}, nil, nil, metrics)

	m.Rank(context.Background(), "coffee", Names("drinks", "Coffee", "Orange Juice"))
	count, err := testutil.GatherAndCount(metrics.Registry(), "roomservice_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
