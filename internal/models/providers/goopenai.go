package providers

import (
	"context"
	"fmt"
	"sort"

	"roomservice/internal/config"

	goopenai "github.com/sashabaranov/go-openai"
)

// GoOpenAIProvider implements the Provider interface with the go-openai client
type GoOpenAIProvider struct {
	client      *goopenai.Client
	model       string
	temperature float32
	maxTokens   int32
}

// NewGoOpenAIProvider creates a new go-openai backed provider
func NewGoOpenAIProvider(cfg config.BackendConfig) (*GoOpenAIProvider, error) {
	client, err := newGoOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &GoOpenAIProvider{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

func newGoOpenAIClient(cfg config.BackendConfig) (*goopenai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("goopenai backend requires an API key")
	}
	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return goopenai.NewClientWithConfig(clientConfig), nil
}

// Name returns the provider name
func (p *GoOpenAIProvider) Name() string {
	return "goopenai"
}

// Complete generates a chat completion in JSON mode
func (p *GoOpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	chatMessages := make([]goopenai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		role := goopenai.ChatMessageRoleUser
		switch msg.Role {
		case RoleSystem:
			role = goopenai.ChatMessageRoleSystem
		case RoleAssistant:
			role = goopenai.ChatMessageRoleAssistant
		}
		chatMessages[i] = goopenai.ChatCompletionMessage{Role: role, Content: msg.Content}
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    chatMessages,
		Temperature: p.temperature,
		MaxTokens:   int(p.maxTokens),
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// GoOpenAIEmbedder implements the Embedder interface with the go-openai client
type GoOpenAIEmbedder struct {
	client *goopenai.Client
	model  goopenai.EmbeddingModel
}

// NewGoOpenAIEmbedder creates a new go-openai backed embedder
func NewGoOpenAIEmbedder(cfg config.BackendConfig) (*GoOpenAIEmbedder, error) {
	client, err := newGoOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	return &GoOpenAIEmbedder{client: client, model: goopenai.EmbeddingModel(model)}, nil
}

// EmbedDocuments embeds a batch of texts, preserving input order
func (e *GoOpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// EmbedQuery embeds a single text
func (e *GoOpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
