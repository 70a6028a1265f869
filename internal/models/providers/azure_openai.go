package providers

import (
	"context"
	"fmt"

	"roomservice/internal/config"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
)

// AzureOpenAIProvider sends chat completions to an Azure OpenAI deployment
type AzureOpenAIProvider struct {
	client  *azopenai.Client
	options azopenai.ChatCompletionsOptions
}

// NewAzureOpenAIProvider creates a provider for the "azure" backend. The
// endpoint, key and deployment may come from AZURE_OPENAI_* variables.
func NewAzureOpenAIProvider(cfg config.BackendConfig) (*AzureOpenAIProvider, error) {
	switch {
	case cfg.BaseURL == "":
		return nil, fmt.Errorf("azure backend requires an endpoint")
	case cfg.APIKey == "":
		return nil, fmt.Errorf("azure backend requires an API key")
	case cfg.Deployment == "":
		return nil, fmt.Errorf("azure backend requires a deployment name")
	}

	client, err := azopenai.NewClientWithKeyCredential(cfg.BaseURL, azcore.NewKeyCredential(cfg.APIKey), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure OpenAI client: %w", err)
	}

	opts := azopenai.ChatCompletionsOptions{
		DeploymentName: to.Ptr(cfg.Deployment),
		Temperature:    to.Ptr(cfg.Temperature),
	}
	if cfg.MaxTokens > 0 {
		opts.MaxTokens = to.Ptr(int32(cfg.MaxTokens))
	}
	return &AzureOpenAIProvider{client: client, options: opts}, nil
}

// Name returns the provider name
func (p *AzureOpenAIProvider) Name() string {
	return "azure"
}

// Complete generates a chat completion
func (p *AzureOpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	req := p.options
	var err error
	if req.Messages, err = azureMessages(messages); err != nil {
		return "", err
	}

	resp, err := p.client.GetChatCompletions(ctx, req, nil)
	if err != nil {
		return "", fmt.Errorf("Azure OpenAI completion failed: %w", err)
	}
	for _, choice := range resp.Choices {
		if choice.Message != nil && choice.Message.Content != nil {
			return *choice.Message.Content, nil
		}
	}
	return "", fmt.Errorf("empty response from Azure OpenAI")
}

func azureMessages(messages []Message) ([]azopenai.ChatRequestMessageClassification, error) {
	out := make([]azopenai.ChatRequestMessageClassification, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, &azopenai.ChatRequestSystemMessage{Content: azopenai.NewChatRequestSystemMessageContent(msg.Content)})
		case RoleUser:
			out = append(out, &azopenai.ChatRequestUserMessage{Content: azopenai.NewChatRequestUserMessageContent(msg.Content)})
		case RoleAssistant:
			out = append(out, &azopenai.ChatRequestAssistantMessage{Content: azopenai.NewChatRequestAssistantMessageContent(msg.Content)})
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}
	return out, nil
}
