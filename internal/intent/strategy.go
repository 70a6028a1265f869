package intent

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"roomservice/internal/llmjson"
	"roomservice/internal/models"
	"roomservice/internal/models/providers"
)

// Strategy scores every intent label for an utterance. Scores are raw;
// the classifier applies keyword adjustments on top.
type Strategy interface {
	Name() string
	Scores(ctx context.Context, text string) (map[models.Intent]float64, error)
}

// Hypotheses are the label descriptions the zero-shot strategy compares against
var Hypotheses = map[models.Intent][]string{
	models.IntentNewOrder: {
		"I would like to order food to my room",
		"Please bring me a meal and a drink",
		"Can I get two sandwiches delivered to my room",
	},
	models.IntentGeneralInquiry: {
		"What is on the menu",
		"What ingredients are in this dish",
		"Does this contain allergens like gluten or nuts",
		"How much does this cost",
	},
	models.IntentUnsupportedAction: {
		"I need housekeeping or fresh towels",
		"What is the status of my order",
		"Book me a taxi or a spa appointment",
		"What is the wifi password",
	},
	models.IntentUnknown: {
		"hello",
		"I am not sure",
		"something nice",
	},
}

// ZeroShot scores labels by embedding similarity to their hypotheses
type ZeroShot struct {
	embedder providers.Embedder

	mu      sync.Mutex
	vectors map[models.Intent][][]float32
}

// NewZeroShot creates a zero-shot strategy over embedder
func NewZeroShot(embedder providers.Embedder) *ZeroShot {
	return &ZeroShot{embedder: embedder}
}

func (z *ZeroShot) Name() string { return "zero_shot" }

func (z *ZeroShot) hypothesisVectors(ctx context.Context) (map[models.Intent][][]float32, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.vectors != nil {
		return z.vectors, nil
	}

	vectors := make(map[models.Intent][][]float32, len(Hypotheses))
	for _, label := range models.Intents {
		vecs, err := z.embedder.EmbedDocuments(ctx, Hypotheses[label])
		if err != nil {
			return nil, fmt.Errorf("failed to embed %s hypotheses: %w", label, err)
		}
		vectors[label] = vecs
	}
	z.vectors = vectors
	return vectors, nil
}

func (z *ZeroShot) Scores(ctx context.Context, text string) (map[models.Intent]float64, error) {
	hypotheses, err := z.hypothesisVectors(ctx)
	if err != nil {
		return nil, err
	}
	query, err := z.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed utterance: %w", err)
	}

	scores := make(map[models.Intent]float64, len(hypotheses))
	for label, vecs := range hypotheses {
		best := 0.0
		for _, v := range vecs {
			best = math.Max(best, cosine(query, v))
		}
		scores[label] = best
	}
	return scores, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Inference asks a chat model to score each label
type Inference struct {
	provider providers.Provider
}

// NewInference creates an inference strategy over provider
func NewInference(provider providers.Provider) *Inference {
	return &Inference{provider: provider}
}

func (s *Inference) Name() string { return "inference" }

const inferencePrompt = `You classify messages sent by hotel guests to room service.
Rate from 0 to 1 how well the message fits each label:
- new_order: the guest wants food or drinks delivered
- general_inquiry: the guest asks about the menu, ingredients, allergens or prices
- unsupported_action: the guest asks for something room service cannot do (housekeeping, order status, cancellations, other hotel services)
- unknown: none of the above or too vague to tell

Respond with JSON only: {"scores": {"new_order": 0.0, "general_inquiry": 0.0, "unsupported_action": 0.0, "unknown": 0.0}}`

type inferenceReply struct {
	Scores map[string]float64 `json:"scores"`
}

func (s *Inference) Scores(ctx context.Context, text string) (map[models.Intent]float64, error) {
	reply, err := s.provider.Complete(ctx, []providers.Message{
		{Role: providers.RoleSystem, Content: inferencePrompt},
		{Role: providers.RoleUser, Content: text},
	})
	if err != nil {
		return nil, err
	}

	var parsed inferenceReply
	if err := llmjson.Decode(reply, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Scores) == 0 {
		return nil, fmt.Errorf("model reply has no scores")
	}

	scores := make(map[models.Intent]float64, len(models.Intents))
	for key, v := range parsed.Scores {
		label := models.Intent(strings.ToLower(strings.TrimSpace(key)))
		if _, known := Hypotheses[label]; known {
			scores[label] = clamp(v)
		}
	}
	return scores, nil
}

// KeywordOnly is the deterministic last resort: flat priors that only the
// keyword adjustments can move.
type KeywordOnly struct{}

func (KeywordOnly) Name() string { return "keyword" }

func (KeywordOnly) Scores(context.Context, string) (map[models.Intent]float64, error) {
	return map[models.Intent]float64{
		models.IntentNewOrder:          0.3,
		models.IntentGeneralInquiry:    0.3,
		models.IntentUnsupportedAction: 0.3,
		models.IntentUnknown:           0.35,
	}, nil
}
