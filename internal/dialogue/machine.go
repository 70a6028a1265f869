package dialogue

import (
	"context"
	"errors"
	"strings"
	"time"

	"roomservice/internal/apperr"
	"roomservice/internal/inquiry"
	"roomservice/internal/intent"
	"roomservice/internal/logging"
	"roomservice/internal/matcher"
	"roomservice/internal/models"
	"roomservice/internal/monitoring"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxSteps bounds the effect loop of one turn
const maxSteps = 16

// DefaultMaxRetries is the failed attempts allowed per issue
const DefaultMaxRetries = 3

type Classifier interface {
	Classify(ctx context.Context, text string) intent.Result
}

type Extractor interface {
	Extract(ctx context.Context, utterance string, current *models.DraftOrder) (*models.DraftOrder, error)
}

type Validator interface {
	Validate(ctx context.Context, draft *models.DraftOrder) (*models.DraftOrder, []models.ValidationIssue)
}

type Inquirer interface {
	Answer(ctx context.Context, text string) inquiry.Answer
}

// Orders is the order processor surface the machine submits to
type Orders interface {
	Price(draft *models.DraftOrder) ([]models.ConfirmedLine, decimal.Decimal, error)
	Submit(ctx context.Context, draft *models.DraftOrder) (models.ConfirmedOrder, error)
	Cancel(ctx context.Context, id string) (models.ConfirmedOrder, error)
}

// Menu supplies the items a guest may pick from during item selection
type Menu interface {
	Items() []models.MenuItem
}

// Deps groups the collaborators of a Machine
type Deps struct {
	Classifier Classifier
	Extractor  Extractor
	Validator  Validator
	Inquirer   Inquirer
	Orders     Orders
	Menu       Menu
	Matcher    *matcher.Matcher
	Logger     *zap.Logger
	Metrics    *monitoring.Metrics
}

// Result is the outcome of one processed utterance
type Result struct {
	SessionID string                   `json:"session_id"`
	Reply     string                   `json:"reply"`
	State     State                    `json:"state"`
	Intent    models.Intent            `json:"intent,omitempty"`
	Issues    []models.ValidationIssue `json:"pending_issues,omitempty"`
	Order     *models.ConfirmedOrder   `json:"confirmed_order,omitempty"`
	Ended     bool                     `json:"ended"`
}

// Machine runs conversation turns. It holds no per-conversation data; each
// call works on the ConversationState it is given.
type Machine struct {
	Deps
	maxRetries int
	now        func() time.Time
}

// NewMachine creates a machine; maxRetries below 1 uses DefaultMaxRetries
func NewMachine(deps Deps, maxRetries int) *Machine {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	deps.Logger = logging.OrNop(deps.Logger).Named("dialogue")
	return &Machine{Deps: deps, maxRetries: maxRetries, now: time.Now}
}

// turn collects what happens while one utterance is processed
type turn struct {
	conv      *ConversationState
	text      string
	replies   []string
	intent    *intent.Result
	order     *models.ConfirmedOrder
	cancelled *models.ConfirmedOrder
	cancelErr error
}

func (t *turn) say(s string) {
	if s != "" {
		t.replies = append(t.replies, s)
	}
}

// Step processes one guest utterance. room, when positive, is the room the
// guest is calling from and fills a draft that names no room.
func (m *Machine) Step(ctx context.Context, conv *ConversationState, utterance string, room int) Result {
	if conv.Ended {
		m.restart(conv)
	}
	if room > 0 {
		conv.Room = room
		if conv.Draft != nil && conv.Draft.RoomNumber == 0 {
			conv.Draft.RoomNumber = room
		}
	}

	t := &turn{conv: conv, text: strings.TrimSpace(utterance)}
	ev := Event{Kind: EventUtterance, HasDraft: conv.HasDraft(), Retry: wantsRetry(t.text)}
	if intent.IsCancellation(t.text) {
		ev = Event{Kind: EventCancelled}
	}

	for step := 0; ; step++ {
		if step == maxSteps {
			m.Logger.Error("turn did not settle", zap.String("session", conv.SessionID), zap.String("state", string(conv.State)))
			conv.State = StateError
			t.say(m.render(PromptEscalate, t))
			conv.Ended = true
			break
		}

		from := conv.State
		next, todo := Transition(from, ev)
		conv.State = next
		m.Logger.Debug("transition",
			zap.String("session", conv.SessionID),
			zap.String("from", string(from)),
			zap.String("event", string(ev.Kind)),
			zap.String("to", string(next)))

		follow, done := m.run(ctx, t, todo)
		if done || follow == nil {
			break
		}
		ev = *follow
	}

	reply := strings.Join(t.replies, "\n")
	conv.record(Turn{Utterance: utterance, State: conv.State, Reply: reply, At: m.now().UTC()})
	m.Metrics.RecordTurn(string(conv.State))

	res := Result{
		SessionID: conv.SessionID,
		Reply:     reply,
		State:     conv.State,
		Issues:    append([]models.ValidationIssue(nil), conv.Issues...),
		Order:     t.order,
		Ended:     conv.Ended,
	}
	if t.intent != nil {
		res.Intent = t.intent.Intent
	}
	return res
}

func (m *Machine) restart(conv *ConversationState) {
	conv.reset()
	conv.State = StateInitial
	conv.Ended = false
}

// run executes effects in order. It returns the event produced by the
// effects, and true when the turn must stop and wait for the guest.
func (m *Machine) run(ctx context.Context, t *turn, todo []Effect) (*Event, bool) {
	conv := t.conv
	var follow *Event

	for _, eff := range todo {
		switch eff.Kind {
		case EffectAwait:
			return nil, true

		case EffectEnd:
			conv.Ended = true
			return nil, true

		case EffectPrompt:
			t.say(m.render(eff.Prompt, t))

		case EffectReset:
			conv.reset()

		case EffectClassify:
			res := m.Classifier.Classify(ctx, t.text)
			t.intent = &res
			ev := Event{Kind: EventClassified, Intent: res.Intent}
			if res.Intent == models.IntentUnknown {
				ev.Exhausted = conv.bump("intent", m.maxRetries)
			} else {
				conv.clear("intent")
			}
			follow = &ev

		case EffectAnswer:
			answer := m.Inquirer.Answer(ctx, t.text)
			t.say(answer.Reply)
			follow = &Event{Kind: EventAnswered}

		case EffectExtract:
			follow = m.extract(ctx, t)

		case EffectValidate:
			follow = m.validate(ctx, conv)

		case EffectReview:
			follow = &Event{Kind: EventValidated, Issues: models.Summarize(conv.Issues), Empty: !conv.HasDraft()}

		case EffectResolve:
			key, ok := m.resolve(ctx, conv, t.text)
			if ok {
				conv.clear(key)
				follow = &Event{Kind: EventResolved}
			} else {
				follow = &Event{Kind: EventUnresolved, Exhausted: conv.bump(key, m.maxRetries)}
			}

		case EffectInterpret:
			kind := interpretConfirmation(t.text)
			ev := Event{Kind: kind}
			if kind == EventUnclear {
				ev.Exhausted = conv.bump("confirmation", m.maxRetries)
			} else {
				conv.clear("confirmation")
			}
			follow = &ev

		case EffectSubmit:
			follow = m.submit(ctx, t)

		case EffectCancelOrder:
			follow = m.cancelOrder(ctx, t)
		}
	}
	return follow, false
}

func (m *Machine) extract(ctx context.Context, t *turn) *Event {
	conv := t.conv
	draft, err := m.Extractor.Extract(ctx, t.text, conv.Draft)
	if errors.Is(err, apperr.ErrExtractionFailure) && conv.HasDraft() {
		// nothing new in the reply; carry on with the pending draft
		return &Event{Kind: EventExtracted}
	}
	if err != nil {
		if !errors.Is(err, apperr.ErrExtractionFailure) {
			m.Logger.Warn("extraction failed", zap.String("session", conv.SessionID), zap.Error(err))
		}
		return &Event{Kind: EventExtractionFailed, Exhausted: conv.bump("extraction", m.maxRetries)}
	}
	conv.clear("extraction")

	switch {
	case draft.RoomNumber == 0 && conv.Room > 0:
		draft.RoomNumber = conv.Room
	case draft.RoomNumber > 0 && conv.Room == 0:
		conv.Room = draft.RoomNumber
	}
	conv.Draft = draft
	return &Event{Kind: EventExtracted}
}

func (m *Machine) validate(ctx context.Context, conv *ConversationState) *Event {
	if !conv.HasDraft() {
		conv.Issues = nil
		return &Event{Kind: EventValidated, Empty: true}
	}
	approved, issues := m.Validator.Validate(ctx, conv.Draft)
	conv.Draft = approved
	conv.Issues = issues
	for _, issue := range issues {
		m.Metrics.RecordIssue(string(issue.Kind))
	}
	return &Event{Kind: EventValidated, Issues: models.Summarize(issues)}
}

func (m *Machine) submit(ctx context.Context, t *turn) *Event {
	conv := t.conv
	order, err := m.Orders.Submit(ctx, conv.Draft)
	switch {
	case err == nil:
		t.order = &order
		conv.LastOrderID = order.OrderID
		m.Logger.Info("order placed",
			zap.String("session", conv.SessionID),
			zap.String("order_id", order.OrderID))
		return &Event{Kind: EventSubmitted}
	case errors.Is(err, apperr.ErrInventoryConflict):
		m.Logger.Info("stock changed before submission", zap.String("session", conv.SessionID), zap.Error(err))
		return &Event{Kind: EventSubmitConflict}
	default:
		m.Logger.Error("order submission failed", zap.String("session", conv.SessionID), zap.Error(err))
		return &Event{Kind: EventSubmitFailed}
	}
}

func (m *Machine) cancelOrder(ctx context.Context, t *turn) *Event {
	conv := t.conv
	if conv.LastOrderID == "" {
		t.cancelErr = apperr.ErrNotFound
		return &Event{Kind: EventCancelRejected}
	}
	cancelled, err := m.Orders.Cancel(ctx, conv.LastOrderID)
	if err != nil {
		t.cancelErr = err
		return &Event{Kind: EventCancelRejected}
	}
	t.cancelled = &cancelled
	return &Event{Kind: EventOrderCancelled}
}
