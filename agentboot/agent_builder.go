package agentboot

import (
	"time"

	"github.com/SaiNageswarS/analytics-agent/llm"
)

type AgentBuilder struct {
	config AgentConfig
}

func NewAgentBuilder(name string) *AgentBuilder {
	return &AgentBuilder{
		config: AgentConfig{
			Name:        name,
			MaxTurns:    5,
			MaxTokens:   2000,
			Temperature: 0.7,
			ToolTimeout: 30 * time.Second,
		},
	}
}

func (b *AgentBuilder) WithMiniModel(client llm.LLMClient) *AgentBuilder {
	b.config.MiniModel = client
	return b
}

func (b *AgentBuilder) WithBigModel(client llm.LLMClient) *AgentBuilder {
	b.config.BigModel = client
	return b
}

func (b *AgentBuilder) WithInstruction(templateName string) *AgentBuilder {
	b.config.Instruction = templateName
	return b
}

func (b *AgentBuilder) WithSystemPrompt(prompt string) *AgentBuilder {
	b.config.SystemPrompt = prompt
	return b
}

func (b *AgentBuilder) WithDecider(d Decider) *AgentBuilder {
	b.config.Decider = d
	return b
}

func (b *AgentBuilder) AddTool(tool MCPTool) *AgentBuilder {
	b.config.Tools = append(b.config.Tools, tool)
	return b
}

func (b *AgentBuilder) WithMaxTokens(max int) *AgentBuilder {
	b.config.MaxTokens = max
	return b
}

func (b *AgentBuilder) WithMaxTurns(maxTurns int) *AgentBuilder {
	b.config.MaxTurns = maxTurns
	return b
}

func (b *AgentBuilder) WithTemperature(t float64) *AgentBuilder {
	b.config.Temperature = t
	return b
}

func (b *AgentBuilder) WithToolTimeout(d time.Duration) *AgentBuilder {
	b.config.ToolTimeout = d
	return b
}

func (b *AgentBuilder) Build() *Agent {
	if b.config.Decider == nil && b.config.BigModel != nil {
		b.config.Decider = &LLMDecider{
			Model:       b.config.BigModel,
			MaxTokens:   b.config.MaxTokens,
			Temperature: b.config.Temperature,
		}
	}

	return &Agent{config: b.config}
}
