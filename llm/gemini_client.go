package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SaiNageswarS/analytics-agent/metrics"
	"github.com/ollama/ollama/api"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient talks to the Gemini generateContent REST endpoint.
type GeminiClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewGeminiClient(apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &GeminiClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
		baseURL:    geminiBaseURL,
		model:      model,
	}, nil
}

func (c *GeminiClient) Capabilities() Capability {
	return NativeToolCalling
}

func (c *GeminiClient) GetModel() string {
	return c.model
}

func (c *GeminiClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := newSettings(c.model, opts...)
	settings.tools = nil

	return c.makeRequest(ctx, settings, c.buildRequest(messages, settings), callback, nil)
}

func (c *GeminiClient) GenerateInferenceWithTools(
	ctx context.Context,
	messages []Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []api.ToolCall) error,
	opts ...LLMOption,
) error {
	settings := newSettings(c.model, opts...)
	return c.makeRequest(ctx, settings, c.buildRequest(messages, settings), contentCallback, toolCallback)
}

func (c *GeminiClient) buildRequest(messages []Message, settings LLMSettings) geminiRequest {
	request := geminiRequest{
		GenerationConfig: geminiGenerationConfig{
			Temperature:     settings.temperature,
			MaxOutputTokens: settings.maxTokens,
		},
	}

	// Gemini has no system role inside contents; fold system messages into the instruction.
	system := []string{}
	if settings.system != "" {
		system = append(system, settings.system)
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
		case RoleAssistant:
			request.Contents = append(request.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: msg.Content}}})
		default:
			request.Contents = append(request.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
		}
	}

	if len(system) > 0 {
		request.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: strings.Join(system, "\n\n")}}}
	}

	if len(settings.tools) > 0 {
		decls := make([]geminiFunctionDeclaration, len(settings.tools))
		for i, tool := range settings.tools {
			decls[i] = geminiFunctionDeclaration{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			}
		}
		request.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}

	return request
}

func (c *GeminiClient) makeRequest(
	ctx context.Context,
	settings LLMSettings,
	request geminiRequest,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []api.ToolCall) error,
) (err error) {
	started := time.Now()
	defer func() {
		metrics.RecordLLMRequest("gemini", settings.model, time.Since(started).Seconds(), err)
	}()

	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, settings.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("error unmarshaling response: %w", err)
	}

	if len(response.Candidates) == 0 {
		if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
			return fmt.Errorf("prompt blocked: %s", response.PromptFeedback.BlockReason)
		}
		return fmt.Errorf("no candidates in response")
	}

	var (
		text      strings.Builder
		toolCalls []api.ToolCall
	)
	for _, part := range response.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			toolCalls = append(toolCalls, api.ToolCall{
				Function: api.ToolCallFunction{
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				},
			})
			continue
		}
		text.WriteString(part.Text)
	}

	if len(toolCalls) > 0 && toolCallback != nil {
		return toolCallback(toolCalls)
	}

	if text.Len() > 0 && contentCallback != nil {
		return contentCallback(text.String())
	}

	return nil
}

// Gemini API types
type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Tools             []geminiTool           `json:"tools,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiFunctionDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason"`
}
