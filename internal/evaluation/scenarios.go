package evaluation

import (
	"fmt"
	"os"

	"roomservice/internal/dialogue"
	"roomservice/internal/models"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted conversation with the expected outcome of each turn
type Scenario struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	// Room is sent with every step that names no room of its own
	Room  int    `json:"room,omitempty" yaml:"room,omitempty"`
	Steps []Step `json:"steps" yaml:"steps"`
}

// Step is one guest utterance
type Step struct {
	Utterance string      `json:"utterance" yaml:"utterance"`
	Room      int         `json:"room,omitempty" yaml:"room,omitempty"`
	Expect    Expectation `json:"expect" yaml:"expect"`
}

// Expectation lists what a turn must produce; zero fields are not checked
type Expectation struct {
	State         dialogue.State     `json:"state,omitempty" yaml:"state,omitempty"`
	Intent        models.Intent      `json:"intent,omitempty" yaml:"intent,omitempty"`
	ReplyContains []string           `json:"reply_contains,omitempty" yaml:"reply_contains,omitempty"`
	Issues        []models.IssueKind `json:"issues,omitempty" yaml:"issues,omitempty"`
	OrderPlaced   bool               `json:"order_placed,omitempty" yaml:"order_placed,omitempty"`
	Total         string             `json:"total,omitempty" yaml:"total,omitempty"`
	Ended         bool               `json:"ended,omitempty" yaml:"ended,omitempty"`
}

// BuiltinScenarios returns the standard guest conversations
func BuiltinScenarios() []*Scenario {
	return []*Scenario{
		{
			ID:          "order_with_modification",
			Name:        "Order with modification",
			Description: "A complete order naming the room, confirmed on the first prompt.",
			Steps: []Step{
				{
					Utterance: "I'd like a club sandwich with extra bacon and two waters to room 312",
					Expect: Expectation{
						State:         dialogue.StateOrderConfirmation,
						Intent:        models.IntentNewOrder,
						ReplyContains: []string{"1 x Club Sandwich (extra bacon)", "2 x Still Water", "Total: $20.50"},
					},
				},
				{
					Utterance: "yes please",
					Expect:    Expectation{State: dialogue.StateOrderCompleted, OrderPlaced: true, Total: "20.50"},
				},
			},
		},
		{
			ID:          "bare_item_order",
			Name:        "Bare item order",
			Description: "A dish named without an order verb is still taken as an order.",
			Room:        312,
			Steps: []Step{
				{
					Utterance: "caesar salad with anchovies",
					Expect: Expectation{
						State:         dialogue.StateOrderConfirmation,
						Intent:        models.IntentNewOrder,
						ReplyContains: []string{"1 x Caesar Salad (add anchovies)"},
					},
				},
			},
		},
		{
			ID:          "unsupported_modification",
			Name:        "Unsupported modification",
			Description: "A modification the item does not offer is replaced with an offered one.",
			Room:        220,
			Steps: []Step{
				{
					Utterance: "Can I order a caesar salad with pineapple",
					Expect: Expectation{
						State:         dialogue.StateModificationSelection,
						Issues:        []models.IssueKind{models.IssueUnsupportedModification},
						ReplyContains: []string{"add chicken", "add anchovies", "no croutons", "dressing on the side"},
					},
				},
				{
					Utterance: "anchovies",
					Expect: Expectation{
						State:         dialogue.StateOrderConfirmation,
						ReplyContains: []string{"Caesar Salad (add anchovies)"},
					},
				},
			},
		},
		{
			ID:          "insufficient_stock",
			Name:        "Insufficient stock",
			Description: "More portions than are in stock; the guest accepts what is left.",
			Room:        410,
			Steps: []Step{
				{
					Utterance: "10 cheesecakes",
					Expect: Expectation{
						State:  dialogue.StateQuantityValidation,
						Issues: []models.IssueKind{models.IssueInsufficientInventory},
					},
				},
				{
					Utterance: "yes",
					Expect:    Expectation{State: dialogue.StateOrderConfirmation, ReplyContains: []string{"Cheesecake"}},
				},
				{
					Utterance: "yes",
					Expect:    Expectation{State: dialogue.StateOrderCompleted, OrderPlaced: true},
				},
			},
		},
		{
			ID:          "menu_inquiry",
			Name:        "Menu inquiry",
			Description: "A question about an item is answered from the catalog.",
			Steps: []Step{
				{
					Utterance: "What ingredients are in the club sandwich?",
					Expect: Expectation{
						State:         dialogue.StateInitial,
						Intent:        models.IntentGeneralInquiry,
						ReplyContains: []string{"Club Sandwich", "Allergens"},
					},
				},
			},
		},
		{
			ID:          "unsupported_request",
			Name:        "Unsupported request",
			Description: "A request outside room service is declined.",
			Steps: []Step{
				{
					Utterance: "Can I get some fresh towels?",
					Expect:    Expectation{State: dialogue.StateInitial, Intent: models.IntentUnsupportedAction},
				},
			},
		},
		{
			ID:          "cancel_before_confirmation",
			Name:        "Cancel before confirmation",
			Description: "The guest abandons an order before it is placed.",
			Steps: []Step{
				{
					Utterance: "I'd like a club sandwich with extra bacon and two waters to room 312",
					Expect:    Expectation{State: dialogue.StateOrderConfirmation},
				},
				{
					Utterance: "actually never mind",
					Expect:    Expectation{State: dialogue.StateInitial, Ended: true, ReplyContains: []string{"cancelled"}},
				},
			},
		},
		{
			ID:          "retry_limit",
			Name:        "Retry limit",
			Description: "Repeated unusable answers hand the guest over to staff.",
			Steps: []Step{
				{
					Utterance: "I'd like a club sandwich with pineapple to room 312",
					Expect:    Expectation{State: dialogue.StateModificationSelection},
				},
				{Utterance: "xyz", Expect: Expectation{State: dialogue.StateModificationSelection}},
				{Utterance: "xyz", Expect: Expectation{State: dialogue.StateModificationSelection}},
				{
					Utterance: "xyz",
					Expect:    Expectation{State: dialogue.StateError, Ended: true, ReplyContains: []string{"front desk"}},
				},
			},
		},
	}
}

// LoadScenarios reads additional scenarios from a YAML document holding a
// list of scenarios.
func LoadScenarios(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	var scenarios []*Scenario
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios: %w", err)
	}
	for i, s := range scenarios {
		if s.ID == "" || len(s.Steps) == 0 {
			return nil, fmt.Errorf("scenario %d needs an id and at least one step", i)
		}
	}
	return scenarios, nil
}
