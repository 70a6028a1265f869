package providers

import "context"

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider interface for chat completion backends. Every prompt in this
// service asks for a JSON object, so implementations request JSON output
// where the backend supports it.
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Embedder interface for text embedding backends
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
