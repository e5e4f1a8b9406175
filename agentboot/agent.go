package agentboot

import (
	"context"
	"time"

	"github.com/SaiNageswarS/analytics-agent/llm"
	"github.com/SaiNageswarS/analytics-agent/schema"
	"github.com/SaiNageswarS/analytics-agent/state"
	"github.com/ollama/ollama/api"
)

// AgentConfig holds configuration for the agent
type AgentConfig struct {
	Name      string
	BigModel  llm.LLMClient
	MiniModel llm.LLMClient
	// Instruction names an embedded stage template rendered against the
	// session state before every run. SystemPrompt is used verbatim when set.
	Instruction  string
	SystemPrompt string
	Tools        []MCPTool
	Decider      Decider
	MaxTokens    int
	MaxTurns     int
	Temperature  float64
	ToolTimeout  time.Duration
}

// Agent is an LLM-backed stage runner.
type Agent struct {
	config AgentConfig
}

func (a *Agent) Name() string { return a.config.Name }

// MCPTool wraps an api.Tool and provides a handler for execution
type MCPTool struct {
	api.Tool
	// SummarizeContext enables automatic summarization of tool results using the mini model.
	// Irrelevant content is dropped, which suits web search tools.
	SummarizeContext bool `json:"summarize_context"`
	Handler          func(ctx context.Context, params api.ToolCallFunctionArguments) <-chan *schema.ToolResultChunk
}

// Invocation carries everything one pipeline run shares with its stages.
type Invocation struct {
	ID        string
	UserID    string
	SessionID string
	Message   string
	History   []llm.Message
	State     *state.Store
}
