package llm

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/SaiNageswarS/analytics-agent/metrics"
	"github.com/ollama/ollama/api"
)

type OllamaLLMClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient connects to the Ollama server named by OLLAMA_HOST (default localhost).
func NewOllamaClient(model string) (*OllamaLLMClient, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, err
	}

	return &OllamaLLMClient{client: client, model: model}, nil
}

func NewOllamaClientWithBase(base *url.URL, httpClient *http.Client, model string) *OllamaLLMClient {
	return &OllamaLLMClient{client: api.NewClient(base, httpClient), model: model}
}

func (c *OllamaLLMClient) Capabilities() Capability {
	return NativeToolCalling
}

func (c *OllamaLLMClient) GetModel() string {
	return c.model
}

func (c *OllamaLLMClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := newSettings(c.model, opts...)
	settings.tools = nil
	return c.chat(ctx, messages, settings, callback, nil)
}

func (c *OllamaLLMClient) GenerateInferenceWithTools(
	ctx context.Context,
	messages []Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []api.ToolCall) error,
	opts ...LLMOption,
) error {
	settings := newSettings(c.model, opts...)
	return c.chat(ctx, messages, settings, contentCallback, toolCallback)
}

func (c *OllamaLLMClient) chat(
	ctx context.Context,
	messages []Message,
	settings LLMSettings,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []api.ToolCall) error,
) (err error) {
	started := time.Now()
	defer func() {
		metrics.RecordLLMRequest("ollama", settings.model, time.Since(started).Seconds(), err)
	}()

	chatMessages := make([]api.Message, 0, len(messages)+1)
	if settings.system != "" {
		chatMessages = append(chatMessages, api.Message{Role: RoleSystem, Content: settings.system})
	}
	for _, msg := range messages {
		chatMessages = append(chatMessages, api.Message{Role: msg.Role, Content: msg.Content})
	}

	stream := settings.stream
	req := &api.ChatRequest{
		Model:    settings.model,
		Messages: chatMessages,
		Stream:   &stream,
		Tools:    settings.tools,
		Options: map[string]any{
			"temperature": settings.temperature,
			"num_predict": settings.maxTokens,
		},
	}

	var toolCalls []api.ToolCall
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		toolCalls = append(toolCalls, resp.Message.ToolCalls...)
		if resp.Message.Content != "" && contentCallback != nil {
			return contentCallback(resp.Message.Content)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(toolCalls) > 0 && toolCallback != nil {
		return toolCallback(toolCalls)
	}
	return nil
}
