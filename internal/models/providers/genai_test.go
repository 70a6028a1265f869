package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roomservice/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenAIEmbedderBatchRequest(t *testing.T) {
	var body struct {
		Requests []struct {
			Model    string `json:"model"`
			TaskType string `json:"taskType"`
			Content  struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"requests"`
	}
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings": [{"values": [0.1, 0.2]}, {"values": [0.3, 0.4]}]}`))
	}))
	defer srv.Close()

	e, err := NewGenAIEmbedder(context.Background(), config.BackendConfig{Backend: "genai", APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	vectors, err := e.EmbedDocuments(context.Background(), []string{"club sandwich", "coffee"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, vectors)

	assert.True(t, strings.HasSuffix(path, "gemini-embedding-001:batchEmbedContents"), path)
	require.Len(t, body.Requests, 2)
	for _, req := range body.Requests {
		assert.Equal(t, "SEMANTIC_SIMILARITY", req.TaskType)
	}
	require.Len(t, body.Requests[1].Content.Parts, 1)
	assert.Equal(t, "coffee", body.Requests[1].Content.Parts[0].Text)
}

func TestGenAIEmbedderRequiresKey(t *testing.T) {
	_, err := NewGenAIEmbedder(context.Background(), config.BackendConfig{Backend: "genai"})
	assert.ErrorContains(t, err, "API key")
}
