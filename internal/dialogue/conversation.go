package dialogue

import (
	"time"

	"roomservice/internal/models"
)

const maxHistory = 50

// Turn records one processed utterance
type Turn struct {
	Utterance string    `json:"utterance"`
	State     State     `json:"state"`
	Reply     string    `json:"reply"`
	At        time.Time `json:"at"`
}

// ConversationState is everything the machine remembers about one guest
// conversation. It is owned by a single session and never shared.
type ConversationState struct {
	SessionID   string                   `json:"session_id"`
	Room        int                      `json:"room,omitempty"`
	State       State                    `json:"state"`
	Draft       *models.DraftOrder       `json:"draft,omitempty"`
	Issues      []models.ValidationIssue `json:"issues,omitempty"`
	History     []Turn                   `json:"history"`
	Retries     map[string]int           `json:"retries,omitempty"`
	Ended       bool                     `json:"ended"`
	LastOrderID string                   `json:"last_order_id,omitempty"`
}

// NewConversation starts a conversation in the initial state
func NewConversation(sessionID string) *ConversationState {
	return &ConversationState{
		SessionID: sessionID,
		State:     StateInitial,
		Retries:   make(map[string]int),
	}
}

// Clone returns a deep copy safe to hand outside the owning session
func (c *ConversationState) Clone() *ConversationState {
	out := *c
	out.Draft = c.Draft.Clone()
	out.Issues = append([]models.ValidationIssue(nil), c.Issues...)
	out.History = append([]Turn(nil), c.History...)
	out.Retries = make(map[string]int, len(c.Retries))
	for k, v := range c.Retries {
		out.Retries[k] = v
	}
	return &out
}

// HasDraft reports whether an order is being built
func (c *ConversationState) HasDraft() bool {
	return !c.Draft.IsEmpty()
}

// bump counts a failed attempt at key and reports whether the budget is spent
func (c *ConversationState) bump(key string, limit int) bool {
	c.Retries[key]++
	return c.Retries[key] >= limit
}

func (c *ConversationState) clear(key string) {
	delete(c.Retries, key)
}

// reset drops the pending order but keeps the room and history
func (c *ConversationState) reset() {
	c.Draft = nil
	c.Issues = nil
	c.Retries = make(map[string]int)
}

func (c *ConversationState) record(turn Turn) {
	c.History = append(c.History, turn)
	if len(c.History) > maxHistory {
		c.History = append([]Turn(nil), c.History[len(c.History)-maxHistory:]...)
	}
}
