package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"roomservice/internal/llmjson"
	"roomservice/internal/models"
	"roomservice/internal/models/providers"
)

const extractionPrompt = `You extract hotel room service orders from guest messages.

Menu (item name: allowed modifications):
%s

Rules:
- Use menu item names exactly as written above when the guest clearly means one; otherwise copy the guest's words.
- quantity is a positive integer; use 1 when the guest does not say.
- modifications are the guest's requested changes to that item.
- room_number is the guest's room as an integer, or null when not mentioned.
- Put any part of the message you could not turn into an item in unparsed.

Respond with JSON only:
{"room_number": 312, "items": [{"name": "Club Sandwich", "quantity": 1, "modifications": ["extra bacon"]}], "unparsed": []}`

const repairPrompt = `Your previous reply could not be used: %v
Reply again with only a JSON object matching the schema from the instructions.`

var errNoItems = errors.New("reply contains no items and no room number")

type llmItem struct {
	Name          string   `json:"name"`
	Quantity      *int     `json:"quantity"`
	Modifications []string `json:"modifications"`
}

type llmReply struct {
	RoomNumber *int      `json:"room_number"`
	Items      []llmItem `json:"items"`
	Unparsed   []string  `json:"unparsed"`
}

// LLM extracts orders with a chat model, retrying with a repair prompt
// when the reply cannot be used.
type LLM struct {
	provider       providers.Provider
	repairAttempts int
}

// NewLLM creates a model backed strategy
func NewLLM(provider providers.Provider, repairAttempts int) *LLM {
	if repairAttempts < 0 {
		repairAttempts = 0
	}
	return &LLM{provider: provider, repairAttempts: repairAttempts}
}

func (s *LLM) Name() string { return string(models.SourceLLM) }

func (s *LLM) Parse(ctx context.Context, utterance string, menu MenuContext) (*Parse, error) {
	messages := []providers.Message{
		{Role: providers.RoleSystem, Content: fmt.Sprintf(extractionPrompt, describeMenu(menu.Items))},
		{Role: providers.RoleUser, Content: utterance},
	}

	var lastErr error
	for attempt := 0; attempt <= s.repairAttempts; attempt++ {
		reply, err := s.provider.Complete(ctx, messages)
		if err == nil {
			var parse *Parse
			parse, err = decodeReply(reply)
			if err == nil {
				return parse, nil
			}
			messages = append(messages, providers.Message{Role: providers.RoleAssistant, Content: reply})
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		messages = append(messages, providers.Message{Role: providers.RoleUser, Content: fmt.Sprintf(repairPrompt, err)})
	}
	return nil, fmt.Errorf("model extraction failed: %w", lastErr)
}

func decodeReply(reply string) (*Parse, error) {
	var parsed llmReply
	if err := llmjson.Decode(reply, &parsed); err != nil {
		return nil, err
	}

	parse := &Parse{Source: models.SourceLLM, Unparsed: nonEmpty(parsed.Unparsed)}
	if parsed.RoomNumber != nil {
		if *parsed.RoomNumber < 0 {
			return nil, fmt.Errorf("room_number must not be negative, got %d", *parsed.RoomNumber)
		}
		parse.RoomNumber = *parsed.RoomNumber
	}
	for i, item := range parsed.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, fmt.Errorf("items[%d] has no name", i)
		}
		quantity := 1
		if item.Quantity != nil {
			quantity = *item.Quantity
		}
		parse.Mentions = append(parse.Mentions, Mention{
			Raw:           name,
			Name:          name,
			Quantity:      quantity,
			Modifications: nonEmpty(item.Modifications),
		})
	}
	if len(parse.Mentions) == 0 && parse.RoomNumber == 0 {
		return nil, errNoItems
	}
	return parse, nil
}

func describeMenu(items []models.MenuItem) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item.Name)
		b.WriteString(": ")
		if item.ModificationsAllowed && len(item.AvailableModifications) > 0 {
			b.WriteString(strings.Join(item.AvailableModifications, ", "))
		} else {
			b.WriteString("none")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
