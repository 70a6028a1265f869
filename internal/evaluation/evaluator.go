// Package evaluation replays scripted guest conversations against the room
// service and reports how many behave as expected.
package evaluation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"roomservice/internal/dialogue"
	"roomservice/internal/logging"
	"roomservice/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner processes guest utterances; *roomservice.Service satisfies it
type Runner interface {
	ProcessTurn(ctx context.Context, sessionID, utterance string, roomNumber int) (dialogue.Result, error)
}

// Evaluator runs scenarios against a Runner
type Evaluator struct {
	scenarios map[string]*Scenario
	metrics   *MetricsCollector
	logger    *zap.Logger
	parallel  int
}

// EvaluationResult contains the outcome of one scenario
type EvaluationResult struct {
	Scenario string        `json:"scenario"`
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Steps    []StepResult  `json:"steps"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// StepResult records one turn of a scenario
type StepResult struct {
	Utterance string         `json:"utterance"`
	Reply     string         `json:"reply"`
	State     dialogue.State `json:"state"`
	Intent    models.Intent  `json:"intent,omitempty"`
	Passed    bool           `json:"passed"`
	Failures  []string       `json:"failures,omitempty"`
	Latency   time.Duration  `json:"latency"`
}

// Report aggregates a run over several scenarios
type Report struct {
	Results  []*EvaluationResult `json:"results"`
	Passed   int                 `json:"passed"`
	Total    int                 `json:"total"`
	PassRate float64             `json:"pass_rate"`
}

// NewEvaluator creates an evaluator loaded with the built-in scenarios.
// metrics and logger may be nil.
func NewEvaluator(metrics *MetricsCollector, logger *zap.Logger) *Evaluator {
	e := &Evaluator{
		scenarios: make(map[string]*Scenario),
		metrics:   metrics,
		logger:    logging.OrNop(logger).Named("evaluation"),
		parallel:  4,
	}
	for _, s := range BuiltinScenarios() {
		e.scenarios[s.ID] = s
	}
	return e
}

// AddScenario registers or replaces a scenario
func (e *Evaluator) AddScenario(s *Scenario) {
	e.scenarios[s.ID] = s
}

// HasScenario checks if a scenario exists
func (e *Evaluator) HasScenario(id string) bool {
	_, exists := e.scenarios[id]
	return exists
}

// GetScenarios returns all scenarios ordered by id
func (e *Evaluator) GetScenarios() []*Scenario {
	scenarios := make([]*Scenario, 0, len(e.scenarios))
	for _, s := range e.scenarios {
		scenarios = append(scenarios, s)
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].ID < scenarios[j].ID })
	return scenarios
}

// Evaluate runs the named scenarios, or all of them when ids is empty.
// Scenarios run concurrently, each in its own session.
func (e *Evaluator) Evaluate(ctx context.Context, runner Runner, ids ...string) (*Report, error) {
	if len(ids) == 0 {
		for _, s := range e.GetScenarios() {
			ids = append(ids, s.ID)
		}
	}
	for _, id := range ids {
		if !e.HasScenario(id) {
			return nil, fmt.Errorf("scenario not found: %s", id)
		}
	}

	results := make([]*EvaluationResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = e.run(gctx, runner, e.scenarios[id])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Results: results, Total: len(results)}
	for _, r := range results {
		if r.Passed {
			report.Passed++
		}
	}
	if report.Total > 0 {
		report.PassRate = float64(report.Passed) / float64(report.Total)
	}
	e.metrics.SetPassRate(report.PassRate)
	return report, nil
}

// EvaluateScenario runs a single scenario
func (e *Evaluator) EvaluateScenario(ctx context.Context, runner Runner, id string) (*EvaluationResult, error) {
	scenario, exists := e.scenarios[id]
	if !exists {
		return nil, fmt.Errorf("scenario not found: %s", id)
	}
	return e.run(ctx, runner, scenario), nil
}

func (e *Evaluator) run(ctx context.Context, runner Runner, scenario *Scenario) *EvaluationResult {
	start := time.Now()
	sessionID := fmt.Sprintf("eval-%s-%s", scenario.ID, uuid.NewString())
	result := &EvaluationResult{Scenario: scenario.ID, Name: scenario.Name, Passed: true}

	for _, step := range scenario.Steps {
		room := step.Room
		if room == 0 {
			room = scenario.Room
		}

		turnStart := time.Now()
		res, err := runner.ProcessTurn(ctx, sessionID, step.Utterance, room)
		latency := time.Since(turnStart)
		e.metrics.ObserveTurn(scenario.ID, latency)

		if err != nil {
			result.Passed = false
			result.Error = err.Error()
			e.logger.Warn("scenario turn failed",
				zap.String("scenario", scenario.ID),
				zap.String("utterance", step.Utterance),
				zap.Error(err))
			break
		}

		failures := step.Expect.check(res)
		result.Steps = append(result.Steps, StepResult{
			Utterance: step.Utterance,
			Reply:     res.Reply,
			State:     res.State,
			Intent:    res.Intent,
			Passed:    len(failures) == 0,
			Failures:  failures,
			Latency:   latency,
		})
		if len(failures) > 0 {
			result.Passed = false
		}
	}

	result.Duration = time.Since(start)
	e.metrics.RecordScenario(scenario.ID, result.Passed)
	e.logger.Info("scenario evaluated",
		zap.String("scenario", scenario.ID),
		zap.Bool("passed", result.Passed),
		zap.Duration("duration", result.Duration))
	return result
}

// check compares a turn result with the expectation and lists mismatches
func (x Expectation) check(res dialogue.Result) []string {
	var failures []string
	if x.State != "" && res.State != x.State {
		failures = append(failures, fmt.Sprintf("state is %s, want %s", res.State, x.State))
	}
	if x.Intent != "" && res.Intent != x.Intent {
		failures = append(failures, fmt.Sprintf("intent is %q, want %s", res.Intent, x.Intent))
	}
	for _, want := range x.ReplyContains {
		if !strings.Contains(res.Reply, want) {
			failures = append(failures, fmt.Sprintf("reply does not mention %q", want))
		}
	}
	for _, kind := range x.Issues {
		if !hasIssue(res.Issues, kind) {
			failures = append(failures, fmt.Sprintf("no %s issue", kind))
		}
	}
	if x.OrderPlaced && res.Order == nil {
		failures = append(failures, "no order was placed")
	}
	if x.Total != "" && (res.Order == nil || res.Order.Total.StringFixed(2) != x.Total) {
		failures = append(failures, fmt.Sprintf("order total is not %s", x.Total))
	}
	if x.Ended && !res.Ended {
		failures = append(failures, "conversation did not end")
	}
	return failures
}

func hasIssue(issues []models.ValidationIssue, kind models.IssueKind) bool {
	for _, issue := range issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}
