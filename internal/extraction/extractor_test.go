package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"roomservice/internal/apperr"
	"roomservice/internal/catalog/catalogtest"
	"roomservice/internal/matcher"
	"roomservice/internal/models"
	"roomservice/internal/models/providers"
	"roomservice/internal/models/providers/providertest"
	"roomservice/internal/monitoring"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineSummary struct {
	Item   string
	Qty    int
	Mods   []string
	Status models.ResolutionStatus
}

func summarize(lines []models.OrderLine) []lineSummary {
	out := make([]lineSummary, len(lines))
	for i, l := range lines {
		out[i] = lineSummary{Item: l.ItemName, Qty: l.Quantity, Mods: l.Modifications, Status: l.Status}
	}
	return out
}

func newExtractor(t *testing.T, strategies ...Strategy) *Extractor {
	t.Helper()
	m := matcher.New(matcher.DefaultOptions(), providers.NewHashingEmbedder(1024), nil, nil, nil)
	return NewExtractor(catalogtest.New(t), m, nil, nil, strategies...)
}

func TestRulesClubSandwichAndWaters(t *testing.T) {
	e := newExtractor(t)

	draft, err := e.Extract(context.Background(), "I'd like a club sandwich with extra bacon and two waters to room 312", nil)
	require.NoError(t, err)

	want := []lineSummary{
		{Item: "Club Sandwich", Qty: 1, Mods: []string{"extra bacon"}, Status: models.ResolutionMatched},
		{Item: "Still Water", Qty: 2, Status: models.ResolutionMatched},
	}
	if diff := cmp.Diff(want, summarize(draft.Lines)); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 312, draft.RoomNumber)
	assert.Equal(t, models.SourceRules, draft.Source)
	assert.Empty(t, draft.Remainder)
	assert.Equal(t, 1.0, draft.ExtractionConfidence)
}

func TestRulesModifiers(t *testing.T) {
	e := newExtractor(t)
	ctx := context.Background()

	draft, err := e.Extract(ctx, "caesar salad with anchovies", nil)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 1)
	assert.Equal(t, "Caesar Salad", draft.Lines[0].ItemName)
	assert.Equal(t, []string{"anchovies"}, draft.Lines[0].Modifications)

	draft, err = e.Extract(ctx, "club sandwich with no mayo and no tomato", nil)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 1)
	assert.Equal(t, []string{"no mayo", "no tomato"}, draft.Lines[0].Modifications)
}

func TestRulesItemAfterWith(t *testing.T) {
	e := newExtractor(t)

	draft, err := e.Extract(context.Background(), "a burger with fries and two coffees", nil)
	require.NoError(t, err)

	want := []lineSummary{
		{Item: "Classic Burger", Qty: 1, Status: models.ResolutionMatched},
		{Item: "French Fries", Qty: 1, Status: models.ResolutionMatched},
		{Item: "Coffee", Qty: 2, Status: models.ResolutionMatched},
	}
	if diff := cmp.Diff(want, summarize(draft.Lines)); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestRulesAmbiguousItem(t *testing.T) {
	m := matcher.New(matcher.DefaultOptions(), nil, nil, nil, nil)
	e := NewExtractor(catalogtest.New(t), m, nil, nil)

	draft, err := e.Extract(context.Background(), "a salad please", nil)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 1)

	line := draft.Lines[0]
	assert.Equal(t, models.ResolutionAmbiguous, line.Status)
	assert.Empty(t, line.ItemName)
	require.GreaterOrEqual(t, len(line.Candidates), 2)
	assert.ElementsMatch(t, []string{"Caesar Salad", "Side Salad"}, []string{line.Candidates[0].Name, line.Candidates[1].Name})
}

func TestRulesKeepUnparsedFragments(t *testing.T) {
	e := newExtractor(t)

	draft, err := e.Extract(context.Background(), "club sandwich and zzzz qqqq", nil)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 1)
	assert.Equal(t, []string{"zzzz qqqq"}, draft.Remainder)
	assert.Less(t, draft.ExtractionConfidence, 1.0)
}

func TestMergeIntoCurrentDraft(t *testing.T) {
	e := newExtractor(t)
	current := &models.DraftOrder{
		Lines: []models.OrderLine{{ItemName: "Still Water", Quantity: 2, Status: models.ResolutionMatched}},
	}

	draft, err := e.Extract(context.Background(), "one more water for room 405", current)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 1)
	assert.Equal(t, 3, draft.Lines[0].Quantity)
	assert.Equal(t, 405, draft.RoomNumber)

	// the caller's draft is untouched
	assert.Equal(t, 2, current.Lines[0].Quantity)
}

func TestModifierOnlyTurnAttachesToLastLine(t *testing.T) {
	e := newExtractor(t)
	current := &models.DraftOrder{
		Lines: []models.OrderLine{{ItemName: "Club Sandwich", Quantity: 1, Status: models.ResolutionMatched}},
	}

	draft, err := e.Extract(context.Background(), "without tomato", current)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 1)
	assert.Equal(t, []string{"without tomato"}, draft.Lines[0].Modifications)
}

func TestRoomOnlyTurn(t *testing.T) {
	e := newExtractor(t)
	current := &models.DraftOrder{
		Lines: []models.OrderLine{{ItemName: "Coffee", Quantity: 1, Status: models.ResolutionMatched}},
	}

	draft, err := e.Extract(context.Background(), "room 512", current)
	require.NoError(t, err)
	assert.Equal(t, 512, draft.RoomNumber)
	assert.Len(t, draft.Lines, 1)
}

func TestNothingFoundIsExtractionFailure(t *testing.T) {
	e := newExtractor(t)

	_, err := e.Extract(context.Background(), "hello there", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrExtractionFailure))
	assert.Equal(t, "extraction_failure", apperr.Kind(err))
}

func TestLoneWordNeedsCloseMatch(t *testing.T) {
	e := newExtractor(t)

	_, err := e.Extract(context.Background(), "try again", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrExtractionFailure))

	current := &models.DraftOrder{
		Lines: []models.OrderLine{{ItemName: "Club Sandwich", Quantity: 1, Status: models.ResolutionMatched}},
	}
	draft, err := e.Extract(context.Background(), "fries", current)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 2)
	assert.Equal(t, "French Fries", draft.Lines[1].ItemName)
}

func TestLLMExtraction(t *testing.T) {
	provider := providertest.NewScriptedProvider(providertest.Text(
		`{"room_number": 220, "items": [{"name": "Club Sandwich", "quantity": 1, "modifications": ["extra bacon"]}, {"name": "water", "quantity": 2}], "unparsed": []}`,
	))
	e := newExtractor(t, NewLLM(provider, 1))

	draft, err := e.Extract(context.Background(), "club sandwich extra bacon, 2 waters, room 220", nil)
	require.NoError(t, err)

	want := []lineSummary{
		{Item: "Club Sandwich", Qty: 1, Mods: []string{"extra bacon"}, Status: models.ResolutionMatched},
		{Item: "Still Water", Qty: 2, Status: models.ResolutionMatched},
	}
	if diff := cmp.Diff(want, summarize(draft.Lines)); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 220, draft.RoomNumber)
	assert.Equal(t, models.SourceLLM, draft.Source)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0][0].Content, "- Caesar Salad: add chicken, add anchovies, no croutons, dressing on the side")
	assert.Contains(t, calls[0][0].Content, "- Still Water: none")
}

func TestLLMRepairRetry(t *testing.T) {
	provider := providertest.NewScriptedProvider(
		providertest.Text("Sure, one coffee coming up!"),
		providertest.Text(`{"room_number": null, "items": [{"name": "Coffee"}]}`),
	)
	e := newExtractor(t, NewLLM(provider, 1))

	draft, err := e.Extract(context.Background(), "coffee please", nil)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 1)
	assert.Equal(t, "Coffee", draft.Lines[0].ItemName)
	assert.Equal(t, 1, draft.Lines[0].Quantity)
	assert.Equal(t, models.SourceLLM, draft.Source)

	calls := provider.Calls()
	require.Len(t, calls, 2)
	require.Len(t, calls[1], 4)
	assert.Equal(t, providers.RoleAssistant, calls[1][2].Role)
	assert.True(t, strings.HasPrefix(calls[1][3].Content, "Your previous reply could not be used"))
}

func TestLLMFailureFallsBackToRules(t *testing.T) {
	metrics := monitoring.NewMetrics()
	provider := providertest.NewScriptedProvider(
		providertest.Text(`{"items": []}`),
		providertest.Fail(errors.New("deadline exceeded")),
	)
	m := matcher.New(matcher.DefaultOptions(), providers.NewHashingEmbedder(1024), nil, nil, nil)
	e := NewExtractor(catalogtest.New(t), m, nil, metrics, NewLLM(provider, 1))

	draft, err := e.Extract(context.Background(), "two orange juices to room 118", nil)
	require.NoError(t, err)
	require.Len(t, draft.Lines, 1)
	assert.Equal(t, "Orange Juice", draft.Lines[0].ItemName)
	assert.Equal(t, 2, draft.Lines[0].Quantity)
	assert.Equal(t, 118, draft.RoomNumber)
	assert.Equal(t, models.SourceRules, draft.Source)
	assert.Len(t, provider.Calls(), 2)

	count, err := testutil.GatherAndCount(metrics.Registry(), "roomservice_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDecodeReplySchema(t *testing.T) {
	_, err := decodeReply(`{"items": [{"name": ""}]}`)
	assert.Error(t, err)

	_, err = decodeReply(`{"room_number": -4, "items": [{"name": "Coffee"}]}`)
	assert.Error(t, err)

	_, err = decodeReply(`{"items": []}`)
	assert.ErrorIs(t, err, errNoItems)

	parse, err := decodeReply(`{"items": [{"name": "Coffee", "quantity": 0}]}`)
	require.NoError(t, err)
	assert.Equal(t, 0, parse.Mentions[0].Quantity)
}

func TestParseQuantityAndRoom(t *testing.T) {
	n, ok := ParseQuantity("make it 3 please")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = ParseQuantity("just two")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = ParseQuantity("a coffee instead")
	assert.False(t, ok)

	room, ok := ParseRoom("it's room #415")
	assert.True(t, ok)
	assert.Equal(t, 415, room)

	room, ok = ParseRoom("312")
	assert.True(t, ok)
	assert.Equal(t, 312, room)

	_, ok = ParseRoom("between 3 and 4")
	assert.False(t, ok)
}
