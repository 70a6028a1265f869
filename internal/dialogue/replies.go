package dialogue

import (
	"errors"
	"fmt"
	"strings"

	"roomservice/internal/apperr"
	"roomservice/internal/matcher"
	"roomservice/internal/models"
	"roomservice/internal/orders"
)

func (m *Machine) render(p Prompt, t *turn) string {
	conv := t.conv
	switch p {
	case PromptReprompt:
		return "Sorry, I didn't catch that. You can order food and drinks, or ask me about the menu."

	case PromptUnsupported:
		return models.IntentUnsupportedAction.Explanation() +
			" I can take food and drink orders or answer questions about the menu."

	case PromptExtractionFailed:
		return "I couldn't find anything from our menu in that. What would you like to order?"

	case PromptIssue:
		issue, ok := stageIssue(conv)
		if !ok {
			return ""
		}
		return remainderNote(conv) + issue.Message + hint(issue)

	case PromptRetry:
		return "Sorry, I didn't understand that."

	case PromptConfirm:
		note := remainderNote(conv)
		lines, total, err := m.Orders.Price(conv.Draft)
		if err != nil {
			return note + "Shall I place your order?"
		}
		return fmt.Sprintf("%sHere's your order for room %d:\n%s\nShall I place it?",
			note, conv.Draft.RoomNumber, orders.FormatLines(lines, total))

	case PromptConfirmUnclear:
		return "Please say yes to place the order, or no to cancel it."

	case PromptCompleted:
		if t.order == nil {
			return "Your order has been placed."
		}
		return fmt.Sprintf("Your order has been placed. Order %s is on its way to room %d. Total: $%s.",
			orders.ShortID(t.order.OrderID), t.order.RoomNumber, t.order.Total.StringFixed(2))

	case PromptCancelled:
		if conv.HasDraft() {
			return "Okay, I've cancelled that order. Nothing has been sent to the kitchen."
		}
		return "Okay. Let me know if there's anything else I can get you."

	case PromptEmptyOrder:
		return "There's nothing left in your order. What would you like instead?"

	case PromptSubmitFailed:
		return "Sorry, I couldn't place your order just now. Let me know when you'd like to try again."

	case PromptOrderCancelled:
		return fmt.Sprintf("Order %s has been cancelled.", orders.ShortID(t.cancelled.OrderID))

	case PromptCannotCancel:
		if errors.Is(t.cancelErr, apperr.ErrInvalidTransition) {
			return fmt.Sprintf("Sorry, order %s can no longer be cancelled.", orders.ShortID(conv.LastOrderID))
		}
		return "Sorry, I couldn't cancel that order. Please call the front desk."

	case PromptEscalate:
		return "I'm sorry, I'm having trouble with this request. Please call the front desk and a member of our staff will help you."
	}
	return ""
}

// stageIssue returns the first issue the current state is responsible for
func stageIssue(conv *ConversationState) (models.ValidationIssue, bool) {
	for _, issue := range conv.Issues {
		switch conv.State {
		case StateItemSelection:
			if issue.IsItemIssue() {
				return issue, true
			}
		case StateModificationSelection:
			if issue.Kind == models.IssueUnsupportedModification {
				return issue, true
			}
		case StateQuantityValidation:
			if issue.IsQuantityIssue() || issue.Kind == models.IssueInvalidRoom {
				return issue, true
			}
		}
	}
	return models.ValidationIssue{}, false
}

func issueKey(issue models.ValidationIssue) string {
	return fmt.Sprintf("%s:%d:%s", issue.Kind, issue.Line, strings.ToLower(issue.Subject))
}

func hint(issue models.ValidationIssue) string {
	switch issue.Kind {
	case models.IssueAmbiguousItem:
		return " Which one would you like?"
	case models.IssueUnknownItem:
		if len(issue.Candidates) > 0 {
			return ` Tell me which one, or say "remove it".`
		}
		return ` Please name something from the menu, or say "remove it".`
	case models.IssueUnsupportedModification:
		if len(issue.Candidates) > 0 {
			return ` Which would you like instead? Or say "skip it".`
		}
		return ` Say "skip it" to order it as is.`
	case models.IssueInsufficientInventory:
		if len(issue.Candidates) > 0 && issue.Candidates[0].Name == issue.Subject {
			return fmt.Sprintf(" Would you like %d instead?", issue.Candidates[0].Quantity)
		}
		return ` Tell me what you'd like instead, or say "remove it".`
	case models.IssueInvalidQuantity:
		return " How many would you like?"
	case models.IssueInvalidRoom:
		if issue.Message != "Which room should we deliver to?" {
			return " Which room should we deliver to?"
		}
	}
	return ""
}

// remainderNote mentions fragments that matched nothing, once
func remainderNote(conv *ConversationState) string {
	if conv.Draft == nil || len(conv.Draft.Remainder) == 0 {
		return ""
	}
	quoted := make([]string, len(conv.Draft.Remainder))
	for i, r := range conv.Draft.Remainder {
		quoted[i] = fmt.Sprintf("%q", r)
	}
	conv.Draft.Remainder = nil
	return fmt.Sprintf("I couldn't match %s to anything on our menu. ", strings.Join(quoted, ", "))
}

var (
	affirmatives = []string{
		"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "confirm", "confirmed",
		"correct", "right", "absolutely", "definitely", "perfect", "great", "fine",
		"go ahead", "sounds good", "please do", "place it", "do it",
	}
	negatives = []string{"no", "nope", "nah", "dont", "not", "wrong", "incorrect"}
	retries   = []string{"try again", "retry", "again", "resubmit", "resend"}
)

// containsPhrase reports whether normalized text holds any phrase as whole words
func containsPhrase(text string, list []string) bool {
	padded := " " + matcher.Normalize(text) + " "
	for _, p := range list {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// wantsRetry reports a reply that asks to carry on with the kept draft
// rather than add to it. A bare "yes" counts, "yes and a coffee" does not.
func wantsRetry(text string) bool {
	if containsPhrase(text, retries) {
		return true
	}
	return len(matcher.Tokens(text)) <= 3 && interpretConfirmation(text) == EventAffirmed
}

func interpretConfirmation(text string) EventKind {
	yes, no := containsPhrase(text, affirmatives), containsPhrase(text, negatives)
	switch {
	case yes && !no:
		return EventAffirmed
	case no && !yes:
		return EventDeclined
	default:
		return EventUnclear
	}
}
