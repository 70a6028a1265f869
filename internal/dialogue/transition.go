// Package dialogue drives multi-turn ordering conversations. Transition is
// a pure function over states and events; Machine executes the effects it
// asks for and feeds the outcomes back as events.
package dialogue

import "roomservice/internal/models"

// State represents a step of the ordering conversation
type State string

const (
	StateInitial                State = "INITIAL"
	StateIntentClassification   State = "INTENT_CLASSIFICATION"
	StateMenuInquiry            State = "MENU_INQUIRY"
	StateOrderExtraction        State = "ORDER_EXTRACTION"
	StateItemValidation         State = "ITEM_VALIDATION"
	StateItemSelection          State = "ITEM_SELECTION"
	StateModificationValidation State = "MODIFICATION_VALIDATION"
	StateModificationSelection  State = "MODIFICATION_SELECTION"
	StateQuantityValidation     State = "QUANTITY_VALIDATION"
	StateOrderConfirmation      State = "ORDER_CONFIRMATION"
	StateOrderCompleted         State = "ORDER_COMPLETED"
	StateError                  State = "ERROR"
)

// States lists every state in conversation order
var States = []State{
	StateInitial, StateIntentClassification, StateMenuInquiry, StateOrderExtraction,
	StateItemValidation, StateItemSelection, StateModificationValidation,
	StateModificationSelection, StateQuantityValidation, StateOrderConfirmation,
	StateOrderCompleted, StateError,
}

// Terminal reports whether the current order is finished in this state
func (s State) Terminal() bool {
	return s == StateOrderCompleted
}

// EventKind identifies what happened
type EventKind string

const (
	EventUtterance        EventKind = "utterance"
	EventCancelled        EventKind = "cancelled"
	EventClassified       EventKind = "classified"
	EventAnswered         EventKind = "answered"
	EventExtracted        EventKind = "extracted"
	EventExtractionFailed EventKind = "extraction_failed"
	EventValidated        EventKind = "validated"
	EventResolved         EventKind = "resolved"
	EventUnresolved       EventKind = "unresolved"
	EventAffirmed         EventKind = "affirmed"
	EventDeclined         EventKind = "declined"
	EventUnclear          EventKind = "unclear"
	EventSubmitted        EventKind = "submitted"
	EventSubmitConflict   EventKind = "submit_conflict"
	EventSubmitFailed     EventKind = "submit_failed"
	EventOrderCancelled   EventKind = "order_cancelled"
	EventCancelRejected   EventKind = "cancel_rejected"
)

// Event is the input to Transition
type Event struct {
	Kind EventKind
	// Intent is set on EventClassified
	Intent models.Intent
	// Issues and Empty describe the draft after EventValidated
	Issues models.IssueSummary
	Empty  bool
	// HasDraft reports a pending draft on EventUtterance
	HasDraft bool
	// Retry marks an utterance that asks to go ahead again with the kept draft
	Retry bool
	// Exhausted marks a failure that used up the retry budget of its issue
	Exhausted bool
}

// EffectKind identifies work the driver must do
type EffectKind string

const (
	EffectClassify    EffectKind = "classify"
	EffectAnswer      EffectKind = "answer"
	EffectExtract     EffectKind = "extract"
	EffectValidate    EffectKind = "validate"
	EffectReview      EffectKind = "review"
	EffectResolve     EffectKind = "resolve"
	EffectInterpret   EffectKind = "interpret"
	EffectSubmit      EffectKind = "submit"
	EffectCancelOrder EffectKind = "cancel_order"
	EffectPrompt      EffectKind = "prompt"
	EffectReset       EffectKind = "reset"
	EffectAwait       EffectKind = "await"
	EffectEnd         EffectKind = "end"
)

// Prompt names a guest facing message
type Prompt string

const (
	PromptReprompt         Prompt = "reprompt"
	PromptUnsupported      Prompt = "unsupported"
	PromptExtractionFailed Prompt = "extraction_failed"
	PromptIssue            Prompt = "issue"
	PromptRetry            Prompt = "retry"
	PromptConfirm          Prompt = "confirm"
	PromptConfirmUnclear   Prompt = "confirm_unclear"
	PromptCompleted        Prompt = "completed"
	PromptCancelled        Prompt = "cancelled"
	PromptEmptyOrder       Prompt = "empty_order"
	PromptSubmitFailed     Prompt = "submit_failed"
	PromptOrderCancelled   Prompt = "order_cancelled"
	PromptCannotCancel     Prompt = "cannot_cancel"
	PromptEscalate         Prompt = "escalate"
)

// Effect is one instruction for the driver
type Effect struct {
	Kind   EffectKind
	Prompt Prompt
}

func do(kind EffectKind) Effect    { return Effect{Kind: kind} }
func say(prompt Prompt) Effect     { return Effect{Kind: EffectPrompt, Prompt: prompt} }
func effects(e ...Effect) []Effect { return e }

var (
	await    = do(EffectAwait)
	end      = do(EffectEnd)
	escalate = effects(say(PromptEscalate), end)
)

// Transition returns the next state and the effects to run for an event.
// It has no side effects. Events that make no sense in a state leave the
// state unchanged and ask for the next utterance.
func Transition(state State, ev Event) (State, []Effect) {
	if ev.Kind == EventCancelled {
		if state == StateOrderCompleted {
			return StateOrderCompleted, effects(do(EffectCancelOrder))
		}
		return StateInitial, effects(say(PromptCancelled), do(EffectReset), end)
	}

	switch state {
	case StateInitial:
		if ev.Kind == EventUtterance {
			return StateIntentClassification, effects(do(EffectClassify))
		}

	case StateIntentClassification:
		if ev.Kind == EventClassified {
			switch ev.Intent {
			case models.IntentNewOrder:
				return StateOrderExtraction, effects(do(EffectExtract))
			case models.IntentGeneralInquiry:
				return StateMenuInquiry, effects(do(EffectAnswer))
			case models.IntentUnsupportedAction:
				return StateInitial, effects(say(PromptUnsupported), await)
			default:
				if ev.Exhausted {
					return StateError, escalate
				}
				return StateError, effects(say(PromptReprompt), await)
			}
		}

	case StateMenuInquiry:
		if ev.Kind == EventAnswered {
			return StateInitial, effects(await)
		}

	case StateOrderExtraction:
		switch ev.Kind {
		case EventExtracted:
			return StateItemValidation, effects(do(EffectValidate))
		case EventExtractionFailed:
			if ev.Exhausted {
				return StateError, escalate
			}
			return StateError, effects(say(PromptExtractionFailed), await)
		}

	case StateItemValidation, StateModificationValidation, StateQuantityValidation:
		switch ev.Kind {
		case EventValidated:
			return route(state, ev)
		case EventUtterance:
			if state == StateQuantityValidation {
				return state, effects(do(EffectResolve))
			}
		case EventResolved:
			if state == StateQuantityValidation {
				return state, effects(do(EffectValidate))
			}
		case EventUnresolved:
			if state == StateQuantityValidation {
				return unresolved(state, ev)
			}
		}

	case StateItemSelection, StateModificationSelection:
		switch ev.Kind {
		case EventUtterance:
			return state, effects(do(EffectResolve))
		case EventResolved:
			if state == StateItemSelection {
				return StateItemValidation, effects(do(EffectValidate))
			}
			return StateModificationValidation, effects(do(EffectValidate))
		case EventUnresolved:
			return unresolved(state, ev)
		}

	case StateOrderConfirmation:
		switch ev.Kind {
		case EventUtterance:
			return state, effects(do(EffectInterpret))
		case EventAffirmed:
			return state, effects(do(EffectSubmit))
		case EventDeclined:
			return StateInitial, effects(say(PromptCancelled), do(EffectReset), end)
		case EventUnclear:
			if ev.Exhausted {
				return StateError, escalate
			}
			return state, effects(say(PromptConfirmUnclear), await)
		case EventSubmitted:
			return StateOrderCompleted, effects(say(PromptCompleted), await)
		case EventSubmitConflict:
			// stock moved since validation; revalidate to raise a fresh quantity issue
			return StateQuantityValidation, effects(do(EffectValidate))
		case EventSubmitFailed:
			return StateError, effects(say(PromptSubmitFailed), await)
		}

	case StateOrderCompleted:
		switch ev.Kind {
		case EventUtterance:
			return StateIntentClassification, effects(do(EffectReset), do(EffectClassify))
		case EventOrderCancelled:
			return StateInitial, effects(say(PromptOrderCancelled), do(EffectReset), end)
		case EventCancelRejected:
			return StateOrderCompleted, effects(say(PromptCannotCancel), await)
		}

	case StateError:
		if ev.Kind == EventUtterance {
			if ev.HasDraft && ev.Retry {
				return StateItemValidation, effects(do(EffectValidate))
			}
			if ev.HasDraft {
				return StateOrderExtraction, effects(do(EffectExtract))
			}
			return StateIntentClassification, effects(do(EffectClassify))
		}
	}

	return state, effects(await)
}

// route picks the stage that handles the outstanding issues. Item issues
// come before modification issues, which come before quantity and room
// issues.
func route(state State, ev Event) (State, []Effect) {
	s := ev.Issues
	switch {
	case ev.Empty:
		return StateInitial, effects(say(PromptEmptyOrder), do(EffectReset), await)
	case s.Items > 0:
		return StateItemSelection, effects(say(PromptIssue), await)
	case state == StateItemValidation:
		return StateModificationValidation, effects(do(EffectReview))
	case s.Modifications > 0:
		return StateModificationSelection, effects(say(PromptIssue), await)
	case state == StateModificationValidation:
		return StateQuantityValidation, effects(do(EffectReview))
	case s.Clear():
		return StateOrderConfirmation, effects(say(PromptConfirm), await)
	default:
		return StateQuantityValidation, effects(say(PromptIssue), await)
	}
}

func unresolved(state State, ev Event) (State, []Effect) {
	if ev.Exhausted {
		return StateError, escalate
	}
	return state, effects(say(PromptRetry), say(PromptIssue), await)
}
