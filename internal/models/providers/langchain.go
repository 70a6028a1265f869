package providers

import (
	"context"
	"fmt"

	"roomservice/internal/config"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const githubModelsURL = "https://models.inference.ai.azure.com"

// LangChainProvider implements the Provider interface for OpenAI compatible
// endpoints (OpenAI itself and GitHub Models) through langchaingo
type LangChainProvider struct {
	client      llms.Model
	name        string
	model       string
	temperature float32
	maxTokens   int32
}

// NewLangChainProvider creates a provider for the "openai" or "github" backend
func NewLangChainProvider(cfg config.BackendConfig) (*LangChainProvider, error) {
	opts, err := langChainOptions(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Backend, err)
	}

	return &LangChainProvider{
		client:      client,
		name:        cfg.Backend,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

// NewLangChainEmbedder creates an embedder backed by the OpenAI embeddings endpoint
func NewLangChainEmbedder(cfg config.BackendConfig) (*embeddings.EmbedderImpl, error) {
	opts, err := langChainOptions(cfg)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	opts = append(opts, openai.WithEmbeddingModel(model))

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

func langChainOptions(cfg config.BackendConfig) ([]openai.Option, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s backend requires an API key", cfg.Backend)
	}

	opts := []openai.Option{openai.WithToken(cfg.APIKey)}

	baseURL := cfg.BaseURL
	if baseURL == "" && cfg.Backend == "github" {
		// GitHub Models uses an OpenAI-compatible API
		baseURL = githubModelsURL
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	return opts, nil
}

// Name returns the provider name
func (p *LangChainProvider) Name() string {
	return p.name
}

// Complete generates a chat completion
func (p *LangChainProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	content := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		var msgType llms.ChatMessageType
		switch msg.Role {
		case RoleSystem:
			msgType = llms.ChatMessageTypeSystem
		case RoleAssistant:
			msgType = llms.ChatMessageTypeAI
		default:
			msgType = llms.ChatMessageTypeHuman
		}
		content[i] = llms.TextParts(msgType, msg.Content)
	}

	opts := []llms.CallOption{
		llms.WithMaxTokens(int(p.maxTokens)),
		llms.WithTemperature(float64(p.temperature)),
		llms.WithJSONMode(),
	}
	if p.model != "" {
		opts = append(opts, llms.WithModel(p.model))
	}

	response, err := p.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate chat completion: %w", err)
	}

	if response == nil || len(response.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", p.name)
	}

	return response.Choices[0].Content, nil
}
