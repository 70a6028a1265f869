package models

// Intent represents the classified purpose of a guest utterance
type Intent string

const (
	IntentNewOrder          Intent = "new_order"
	IntentGeneralInquiry    Intent = "general_inquiry"
	IntentUnsupportedAction Intent = "unsupported_action"
	IntentUnknown           Intent = "unknown"
)

// Intents lists every label in priority order
var Intents = []Intent{IntentNewOrder, IntentGeneralInquiry, IntentUnsupportedAction, IntentUnknown}

// Explanation returns a guest facing description of the intent
func (i Intent) Explanation() string {
	switch i {
	case IntentNewOrder:
		return "This appears to be a new food order request."
	case IntentGeneralInquiry:
		return "This appears to be a question about our menu or food items."
	case IntentUnsupportedAction:
		return "This request is for a service we don't currently support through room service."
	default:
		return "I'm not sure what you're asking for."
	}
}
