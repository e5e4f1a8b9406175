package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClientChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-oss:20b", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "Answer briefly", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/x-ndjson")
		json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   "gpt-oss:20b",
			Message: api.Message{Role: "assistant", Content: "Revenue grew 12%."},
			Done:    true,
		})
	}))
	defer server.Close()

	base, err := url.Parse(server.URL)
	require.NoError(t, err)
	client := NewOllamaClientWithBase(base, server.Client(), "gpt-oss:20b")

	var answer string
	err = client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "How did revenue move?"}},
		func(chunk string) error {
			answer += chunk
			return nil
		},
		WithSystemPrompt("Answer briefly"),
	)

	require.NoError(t, err)
	assert.Equal(t, "Revenue grew 12%.", answer)
	assert.Equal(t, NativeToolCalling, client.Capabilities())
}
