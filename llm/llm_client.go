package llm

import (
	"context"

	"github.com/ollama/ollama/api"
)

type Capability uint8

const (
	NativeToolCalling Capability = 1 << iota
)

// LLMClient is one hosted or local chat model. Each pipeline stage holds its own.
type LLMClient interface {
	GenerateInference(
		ctx context.Context,
		messages []Message,
		callback func(chunk string) error,
		opts ...LLMOption,
	) error

	// GenerateInferenceWithTools supports native tool calling
	GenerateInferenceWithTools(
		ctx context.Context,
		messages []Message,
		contentCallback func(chunk string) error,
		toolCallback func(toolCalls []api.ToolCall) error,
		opts ...LLMOption,
	) error

	Capabilities() Capability

	GetModel() string
}

type LLMSettings struct {
	model       string     // model name
	temperature float64    // randomness (0.0 to 1.0)
	maxTokens   int        // maximum tokens to generate
	system      string     // system prompt
	stream      bool       // whether to stream response
	tools       []api.Tool // tools to use for tool calling
}

func newSettings(model string, opts ...LLMOption) LLMSettings {
	settings := LLMSettings{
		model:       model,
		temperature: 0.7,
		maxTokens:   4096,
	}
	for _, opt := range opts {
		opt(&settings)
	}
	return settings
}

type LLMOption func(*LLMSettings)

// WithLLMModel overrides the client's model for one call; empty keeps the default.
func WithLLMModel(model string) LLMOption {
	return func(s *LLMSettings) {
		if model != "" {
			s.model = model
		}
	}
}

func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

func WithStreaming(stream bool) LLMOption {
	return func(s *LLMSettings) { s.stream = stream }
}

func WithTools(tools []api.Tool) LLMOption {
	return func(s *LLMSettings) { s.tools = tools }
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// IsToolResult marks a user-role message that carries tool output rather than user input.
	IsToolResult bool `json:"-"`
}
