package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/SaiNageswarS/analytics-agent/metrics"
	"github.com/ollama/ollama/api"
)

const groqURL = "https://api.groq.com/openai/v1/chat/completions"

// groqToolModels lists the Groq-hosted models documented to support tool calling.
var groqToolModels = []string{
	"llama-3.3-70b-versatile",
	"llama-3.1-8b-instant",
	"openai/gpt-oss-20b",
	"openai/gpt-oss-120b",
	"meta-llama/llama-4-scout-17b-16e-instruct",
	"meta-llama/llama-4-maverick-17b-128e-instruct",
	"moonshotai/kimi-k2-instruct",
	"moonshotai/kimi-k2-instruct-0905",
}

type GroqClient struct {
	apiKey     string
	httpClient *http.Client
	url        string
	model      string
}

// NewGroqClient returns a client for Groq's OpenAI-compatible chat API.
// The key is supplied by the caller; an empty key is a configuration error.
func NewGroqClient(apiKey, model string) (*GroqClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &GroqClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
		url:        groqURL,
		model:      model,
	}, nil
}

func (c *GroqClient) Capabilities() Capability {
	if slices.ContainsFunc(groqToolModels, func(m string) bool { return strings.Contains(c.model, m) }) {
		return NativeToolCalling
	}
	return 0
}

func (c *GroqClient) GetModel() string {
	return c.model
}

func (c *GroqClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := newSettings(c.model, opts...)
	return c.complete(ctx, c.buildRequest(messages, settings, false), callback, nil)
}

func (c *GroqClient) GenerateInferenceWithTools(
	ctx context.Context,
	messages []Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []api.ToolCall) error,
	opts ...LLMOption,
) error {
	settings := newSettings(c.model, opts...)
	return c.complete(ctx, c.buildRequest(messages, settings, true), contentCallback, toolCallback)
}

// buildRequest puts the system prompt first, as Groq takes it as a message.
func (c *GroqClient) buildRequest(messages []Message, settings LLMSettings, withTools bool) groqRequest {
	request := groqRequest{
		Model:       settings.model,
		Temperature: settings.temperature,
		MaxTokens:   settings.maxTokens,
	}

	if settings.system != "" {
		request.Messages = append(request.Messages, Message{Role: RoleSystem, Content: settings.system})
	}
	request.Messages = append(request.Messages, messages...)

	if withTools && len(settings.tools) > 0 {
		request.Tools = convertToolsToGroqFormat(settings.tools)
		request.ToolChoice = "auto"
	}

	return request
}

func (c *GroqClient) complete(
	ctx context.Context,
	request groqRequest,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []api.ToolCall) error,
) error {
	started := time.Now()
	message, err := c.post(ctx, request)
	metrics.RecordLLMRequest("groq", request.Model, time.Since(started).Seconds(), err)
	if err != nil {
		return err
	}

	if len(message.ToolCalls) > 0 && toolCallback != nil {
		calls, err := toOllamaToolCalls(message.ToolCalls)
		if err != nil {
			return err
		}
		return toolCallback(calls)
	}

	if message.Content != "" && contentCallback != nil {
		return contentCallback(message.Content)
	}
	return nil
}

func (c *GroqClient) post(ctx context.Context, request groqRequest) (*groqMessage, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response groqResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}
	return &response.Choices[0].Message, nil
}

// toOllamaToolCalls decodes Groq's JSON-string arguments into the shared tool call shape.
func toOllamaToolCalls(calls []groqToolCall) ([]api.ToolCall, error) {
	out := make([]api.ToolCall, len(calls))
	for i, tc := range calls {
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("error parsing arguments for %s: %w", tc.Function.Name, err)
		}
		out[i] = api.ToolCall{Function: api.ToolCallFunction{Name: tc.Function.Name, Arguments: args}}
	}
	return out, nil
}

func convertToolsToGroqFormat(tools []api.Tool) []groqTool {
	groqTools := make([]groqTool, len(tools))
	for i, tool := range tools {
		groqTools[i] = groqTool{
			Type: "function",
			Function: groqFunction{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		}
	}
	return groqTools
}

type groqRequest struct {
	Model       string     `json:"model"`
	Messages    []Message  `json:"messages"`
	Temperature float64    `json:"temperature,omitempty"`
	MaxTokens   int        `json:"max_completion_tokens,omitempty"`
	Tools       []groqTool `json:"tools,omitempty"`
	ToolChoice  string     `json:"tool_choice,omitempty"`
}

type groqTool struct {
	Type     string       `json:"type"`
	Function groqFunction `json:"function"`
}

type groqFunction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

type groqResponse struct {
	Choices []groqChoice `json:"choices"`
}

type groqChoice struct {
	Message      groqMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type groqMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []groqToolCall `json:"tool_calls,omitempty"`
}

type groqToolCall struct {
	ID       string               `json:"id"`
	Type     string               `json:"type"`
	Function groqToolCallFunction `json:"function"`
}

type groqToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
