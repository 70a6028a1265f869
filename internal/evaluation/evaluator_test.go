package evaluation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"roomservice/internal/config"
	"roomservice/internal/dialogue"
	"roomservice/internal/models"
	"roomservice/internal/roomservice"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner answers each utterance with a canned result
type scriptedRunner struct {
	replies map[string]dialogue.Result
	err     error
}

func (r scriptedRunner) ProcessTurn(_ context.Context, sessionID, utterance string, _ int) (dialogue.Result, error) {
	if r.err != nil {
		return dialogue.Result{}, r.err
	}
	res := r.replies[utterance]
	res.SessionID = sessionID
	return res, nil
}

func inquiryScenario() *Scenario {
	return &Scenario{
		ID: "inquiry",
		Steps: []Step{{
			Utterance: "what's in the pie?",
			Expect: Expectation{
				State:         dialogue.StateInitial,
				Intent:        models.IntentGeneralInquiry,
				ReplyContains: []string{"Apple Pie"},
			},
		}},
	}
}

func TestNewEvaluator(t *testing.T) {
	evaluator := NewEvaluator(nil, nil)

	for _, id := range []string{"order_with_modification", "bare_item_order", "unsupported_modification", "insufficient_stock", "menu_inquiry", "retry_limit"} {
		assert.True(t, evaluator.HasScenario(id), id)
	}
	assert.False(t, evaluator.HasScenario("non_existent_scenario"))

	scenarios := evaluator.GetScenarios()
	require.NotEmpty(t, scenarios)
	for i := 1; i < len(scenarios); i++ {
		assert.Less(t, scenarios[i-1].ID, scenarios[i].ID)
	}
}

func TestEvaluateScenario(t *testing.T) {
	evaluator := NewEvaluator(nil, nil)
	evaluator.AddScenario(inquiryScenario())

	pass := scriptedRunner{replies: map[string]dialogue.Result{
		"what's in the pie?": {State: dialogue.StateInitial, Intent: models.IntentGeneralInquiry, Reply: "Apple Pie ($7.00): ..."},
	}}
	result, err := evaluator.EvaluateScenario(context.Background(), pass, "inquiry")
	require.NoError(t, err)
	assert.True(t, result.Passed)
	require.Len(t, result.Steps, 1)
	assert.Empty(t, result.Steps[0].Failures)

	fail := scriptedRunner{replies: map[string]dialogue.Result{
		"what's in the pie?": {State: dialogue.StateError, Intent: models.IntentUnknown, Reply: "Sorry"},
	}}
	result, err = evaluator.EvaluateScenario(context.Background(), fail, "inquiry")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, []string{
		"state is ERROR, want INITIAL",
		`intent is "unknown", want general_inquiry`,
		`reply does not mention "Apple Pie"`,
	}, result.Steps[0].Failures)

	_, err = evaluator.EvaluateScenario(context.Background(), pass, "missing")
	assert.Error(t, err)
}

func TestExpectationCheck(t *testing.T) {
	x := Expectation{
		Issues:      []models.IssueKind{models.IssueInsufficientInventory},
		OrderPlaced: true,
		Total:       "20.50",
		Ended:       true,
	}

	failures := x.check(dialogue.Result{})
	assert.Equal(t, []string{
		"no insufficient_inventory issue",
		"no order was placed",
		"order total is not 20.50",
		"conversation did not end",
	}, failures)
}

func TestRunnerErrorFailsScenario(t *testing.T) {
	evaluator := NewEvaluator(nil, nil)
	evaluator.AddScenario(inquiryScenario())

	result, err := evaluator.EvaluateScenario(context.Background(), scriptedRunner{err: errors.New("boom")}, "inquiry")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, "boom", result.Error)
	assert.Empty(t, result.Steps)
}

func TestEvaluateReport(t *testing.T) {
	metrics := NewMetricsCollector()
	evaluator := NewEvaluator(metrics, nil)
	evaluator.AddScenario(inquiryScenario())

	runner := scriptedRunner{replies: map[string]dialogue.Result{
		"what's in the pie?": {State: dialogue.StateInitial, Intent: models.IntentGeneralInquiry, Reply: "Apple Pie"},
	}}
	report, err := evaluator.Evaluate(context.Background(), runner, "inquiry", "menu_inquiry")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 0.5, report.PassRate)
	assert.Equal(t, "inquiry", report.Results[0].Scenario)

	assert.Equal(t, 0.5, testutil.ToFloat64(metrics.passRate))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.scenarios.WithLabelValues("inquiry", "pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.scenarios.WithLabelValues("menu_inquiry", "fail")))

	_, err = evaluator.Evaluate(context.Background(), runner, "inquiry", "missing")
	assert.Error(t, err)
}

func TestLoadScenarios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	doc := `
- id: coffee
  name: Coffee
  room: 312
  steps:
    - utterance: a coffee please
      expect:
        state: ORDER_CONFIRMATION
        reply_contains: ["Coffee"]
    - utterance: "yes"
      expect:
        state: ORDER_COMPLETED
        order_placed: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	scenarios, err := LoadScenarios(path)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	s := scenarios[0]
	assert.Equal(t, 312, s.Room)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, dialogue.StateOrderConfirmation, s.Steps[0].Expect.State)
	assert.True(t, s.Steps[1].Expect.OrderPlaced)

	require.NoError(t, os.WriteFile(path, []byte("- name: no id\n"), 0o600))
	_, err = LoadScenarios(path)
	assert.Error(t, err)
}

func TestBuiltinScenariosAgainstService(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.MenuPath = "../../data/menu.json"
	cfg.Catalog.InventoryPath = "../../data/inventory.json"
	cfg.Models.Embeddings.Dimensions = 1024
	cfg.Dialogue.JanitorInterval = 0

	service, err := roomservice.Open(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	defer service.Close()

	report, err := NewEvaluator(nil, nil).Evaluate(context.Background(), service,
		"order_with_modification", "bare_item_order", "insufficient_stock", "menu_inquiry",
		"unsupported_request", "cancel_before_confirmation")
	require.NoError(t, err)
	for _, r := range report.Results {
		assert.True(t, r.Passed, "%s: %+v", r.Scenario, r.Steps)
	}
	assert.Equal(t, 1.0, report.PassRate)
}
