package providers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"roomservice/internal/config"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// MockLLM is a mock implementation of the langchaingo model interface
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llms.ContentResponse), args.Error(1)
}

func newMockProvider(m *MockLLM) *LangChainProvider {
	return &LangChainProvider{client: m, name: "openai", model: "gpt-4o-mini", maxTokens: 100}
}

func TestLangChainProviderComplete(t *testing.T) {
	mockLLM := new(MockLLM)
	messages := []Message{
		{Role: RoleSystem, Content: "extract the order"},
		{Role: RoleUser, Content: "two burgers"},
	}
	want := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, "extract the order"),
		llms.TextParts(llms.ChatMessageTypeHuman, "two burgers"),
	}
	mockLLM.On("GenerateContent", mock.Anything, want).Return(&llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: `{"items":[]}`}},
	}, nil)

	out, err := newMockProvider(mockLLM).Complete(context.Background(), messages)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, out)
	mockLLM.AssertExpectations(t)
}

func TestLangChainProviderEmptyResponse(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(&llms.ContentResponse{}, nil)

	_, err := newMockProvider(mockLLM).Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response from openai")
}

func TestLangChainProviderBackendError(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))

	_, err := newMockProvider(mockLLM).Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	mockLLM.AssertNumberOfCalls(t, "GenerateContent", 1)
}

func TestAzureMessages(t *testing.T) {
	out, err := azureMessages([]Message{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleAssistant, Content: "a"},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.IsType(t, &azopenai.ChatRequestSystemMessage{}, out[0])
	assert.IsType(t, &azopenai.ChatRequestUserMessage{}, out[1])
	assert.IsType(t, &azopenai.ChatRequestAssistantMessage{}, out[2])

	wire, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"role": "system", "content": "s"},
		{"role": "user", "content": "u"},
		{"role": "assistant", "content": "a"}
	]`, string(wire))

	_, err = azureMessages([]Message{{Role: "tool", Content: "x"}})
	assert.ErrorContains(t, err, "unsupported message role")
}

func TestNewAzureOpenAIProviderRequiresSettings(t *testing.T) {
	_, err := NewAzureOpenAIProvider(config.BackendConfig{Backend: "azure", APIKey: "k", Deployment: "d"})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewAzureOpenAIProvider(config.BackendConfig{Backend: "azure", BaseURL: "https://example.openai.azure.com", APIKey: "k"})
	assert.ErrorContains(t, err, "deployment")

	p, err := NewAzureOpenAIProvider(config.BackendConfig{Backend: "azure", BaseURL: "https://example.openai.azure.com", APIKey: "k", Deployment: "d", MaxTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, "azure", p.Name())
}
