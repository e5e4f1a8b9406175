package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeminiClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGeminiClient("test-key", "gemini-2.0-flash")
	require.NoError(t, err)
	client.baseURL = server.URL
	return client
}

func TestNewGeminiClient(t *testing.T) {
	_, err := NewGeminiClient("", "gemini-2.0-flash")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	client, err := NewGeminiClient("key", "gemini-2.0-flash")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", client.GetModel())
	assert.Equal(t, NativeToolCalling, client.Capabilities())
}

func TestGeminiClientGenerateInference(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var request geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))

		require.NotNil(t, request.SystemInstruction)
		assert.Equal(t, "Be concise\n\nExtra rule", request.SystemInstruction.Parts[0].Text)
		require.Len(t, request.Contents, 2)
		assert.Equal(t, "user", request.Contents[0].Role)
		assert.Equal(t, "model", request.Contents[1].Role)
		assert.Empty(t, request.Tools)

		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{Role: "model", Parts: []geminiPart{{Text: "Hello "}, {Text: "there"}}},
			}},
		})
	})

	messages := []Message{
		{Role: "system", Content: "Extra rule"},
		{Role: "user", Content: "Hi"},
		{Role: "assistant", Content: "Hello"},
	}

	var result string
	err := client.GenerateInference(context.Background(), messages, func(chunk string) error {
		result += chunk
		return nil
	}, WithSystemPrompt("Be concise"), WithLLMModel("gemini-2.5-flash"))

	require.NoError(t, err)
	assert.Equal(t, "Hello there", result)
}

func TestGeminiClientFunctionCall(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		var request geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Len(t, request.Tools, 1)
		assert.Equal(t, "google_search", request.Tools[0].FunctionDeclarations[0].Name)

		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{Parts: []geminiPart{{
					FunctionCall: &geminiFunctionCall{Name: "google_search", Args: map[string]any{"query": "SBI credit cards"}},
				}}},
			}},
		})
	})

	tools := []api.Tool{{Type: "function", Function: api.ToolFunction{Name: "google_search", Description: "Search the web"}}}

	var calls []api.ToolCall
	err := client.GenerateInferenceWithTools(context.Background(),
		[]Message{{Role: "user", Content: "SBI?"}},
		func(chunk string) error { return nil },
		func(toolCalls []api.ToolCall) error {
			calls = toolCalls
			return nil
		},
		WithTools(tools),
	)

	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "google_search", calls[0].Function.Name)
	assert.Equal(t, "SBI credit cards", calls[0].Function.Arguments["query"])
}

func TestGeminiClientErrors(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": "quota"}`))
		})

		err := client.GenerateInference(context.Background(), []Message{{Role: "user", Content: "x"}}, func(string) error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("blocked prompt", func(t *testing.T) {
		client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates": [], "promptFeedback": {"blockReason": "SAFETY"}}`))
		})

		err := client.GenerateInference(context.Background(), []Message{{Role: "user", Content: "x"}}, func(string) error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SAFETY")
	})
}
