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

// groqServer replies with message and records every request it receives.
func groqServer(t *testing.T, message groqMessage, requests *[]groqRequest) *GroqClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var request groqRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		if requests != nil {
			*requests = append(*requests, request)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(groqResponse{Choices: []groqChoice{{Message: message}}})
	}))
	t.Cleanup(server.Close)

	client, err := NewGroqClient("test-key", "llama-3.3-70b-versatile")
	require.NoError(t, err)
	client.url = server.URL
	return client
}

func TestNewGroqClient(t *testing.T) {
	_, err := NewGroqClient("", "llama-3.3-70b-versatile")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	client, err := NewGroqClient("test-key", "llama-3.3-70b-versatile")
	require.NoError(t, err)
	assert.Equal(t, "llama-3.3-70b-versatile", client.GetModel())
}

func TestGroqClientCapabilities(t *testing.T) {
	tests := map[string]Capability{
		"llama-3.3-70b-versatile":                   NativeToolCalling,
		"openai/gpt-oss-120b":                       NativeToolCalling,
		"meta-llama/llama-4-scout-17b-16e-instruct": NativeToolCalling,
		"gemma2-9b-it":                              0,
	}

	for model, want := range tests {
		t.Run(model, func(t *testing.T) {
			client, err := NewGroqClient("test-key", model)
			require.NoError(t, err)
			assert.Equal(t, want, client.Capabilities())
		})
	}
}

func TestGroqClientSystemPromptAndContent(t *testing.T) {
	var requests []groqRequest
	client := groqServer(t, groqMessage{Content: `{"user_query":"SBI Q1","relevance":"yes"}`}, &requests)

	var answer string
	err := client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "How did SBI do in Q1?"}},
		func(chunk string) error {
			answer += chunk
			return nil
		},
		WithSystemPrompt("Extract the query parameters."))

	require.NoError(t, err)
	assert.Equal(t, `{"user_query":"SBI Q1","relevance":"yes"}`, answer)

	require.Len(t, requests, 1)
	require.Len(t, requests[0].Messages, 2)
	assert.Equal(t, Message{Role: "system", Content: "Extract the query parameters."}, requests[0].Messages[0])
	assert.Equal(t, "How did SBI do in Q1?", requests[0].Messages[1].Content)
}

func TestGroqClientToolCalls(t *testing.T) {
	client := groqServer(t, groqMessage{ToolCalls: []groqToolCall{{
		ID:       "call_123",
		Type:     "function",
		Function: groqToolCallFunction{Name: "get_data_tables", Arguments: `{"company_name": "SBIN.NS"}`},
	}}}, nil)

	var calls []api.ToolCall
	err := client.GenerateInferenceWithTools(context.Background(),
		[]Message{{Role: "user", Content: "How is SBI doing?"}},
		func(string) error { return nil },
		func(tc []api.ToolCall) error {
			calls = tc
			return nil
		},
		WithTools([]api.Tool{{Function: api.ToolFunction{Name: "get_data_tables"}}}))

	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "get_data_tables", calls[0].Function.Name)
	assert.Equal(t, "SBIN.NS", calls[0].Function.Arguments["company_name"])
}

func TestGroqClientRequestShape(t *testing.T) {
	var requests []groqRequest
	client := groqServer(t, groqMessage{Content: "ok"}, &requests)

	tools := []api.Tool{{Function: api.ToolFunction{Name: "google_search", Description: "Search the web"}}}
	noop := func(string) error { return nil }

	require.NoError(t, client.GenerateInference(context.Background(), []Message{{Role: "user", Content: "hi"}}, noop,
		WithTools(tools), WithMaxTokens(256), WithLLMModel("llama-3.1-8b-instant")))
	require.NoError(t, client.GenerateInferenceWithTools(context.Background(), []Message{{Role: "user", Content: "hi"}}, noop,
		func([]api.ToolCall) error { return nil }, WithTools(tools)))

	require.Len(t, requests, 2)
	assert.Empty(t, requests[0].Tools, "plain inference never advertises tools")
	assert.Empty(t, requests[0].ToolChoice)
	assert.Equal(t, 256, requests[0].MaxTokens)
	assert.Equal(t, "llama-3.1-8b-instant", requests[0].Model)

	require.Len(t, requests[1].Tools, 1)
	assert.Equal(t, "auto", requests[1].ToolChoice)
	assert.Equal(t, "function", requests[1].Tools[0].Type)
	assert.Equal(t, "Search the web", requests[1].Tools[0].Function.Description)
}

func TestGroqClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":"slow down"}`, wantErr: "status 429"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "no choices"},
		{name: "malformed body", status: http.StatusOK, body: `{"choices":`, wantErr: "unmarshaling"},
		{
			name:    "bad tool arguments",
			status:  http.StatusOK,
			body:    `{"choices":[{"message":{"tool_calls":[{"function":{"name":"get_data_tables","arguments":"{not json"}}]}}]}`,
			wantErr: "arguments for get_data_tables",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewGroqClient("test-key", "llama-3.3-70b-versatile")
			require.NoError(t, err)
			client.url = server.URL

			err = client.GenerateInferenceWithTools(context.Background(), []Message{{Role: "user", Content: "SBI?"}},
				func(string) error { return nil },
				func([]api.ToolCall) error { return nil })
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
