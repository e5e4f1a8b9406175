package agentboot

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/analytics-agent/llm"
	"github.com/SaiNageswarS/analytics-agent/prompts"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// Action is what a Decider wants to happen next: run tools, or finish with output.
type Action struct {
	ToolCalls []api.ToolCall
	Output    string
}

func Invoke(calls ...api.ToolCall) Action { return Action{ToolCalls: calls} }

func Finish(output string) Action { return Action{Output: output} }

func (a Action) IsFinish() bool { return len(a.ToolCalls) == 0 }

// DecisionContext is the input to one decide step.
type DecisionContext struct {
	Instruction string
	Messages    []llm.Message
	Tools       []MCPTool
	Turn        int
	// Final is set once the turn budget is spent; the decider must not request tools.
	Final bool
}

type Decider interface {
	DecideNextAction(ctx context.Context, dc DecisionContext) (Action, error)
}

// LLMDecider asks a model for tool calls, falling back to plain inference when
// no tools are available, the model cannot call tools, or the budget is spent.
type LLMDecider struct {
	Model       llm.LLMClient
	MaxTokens   int
	Temperature float64
}

func (d *LLMDecider) DecideNextAction(ctx context.Context, dc DecisionContext) (Action, error) {
	if dc.Final || len(dc.Tools) == 0 || d.Model.Capabilities()&llm.NativeToolCalling == 0 {
		return d.answer(ctx, dc)
	}

	var content strings.Builder
	var toolCalls []api.ToolCall
	err := d.Model.GenerateInferenceWithTools(
		ctx, dc.Messages,
		func(chunk string) error {
			content.WriteString(chunk)
			return nil
		},
		func(calls []api.ToolCall) error {
			toolCalls = append(toolCalls, calls...)
			return nil
		},
		llm.WithTools(toolSchemas(dc.Tools)),
		llm.WithMaxTokens(d.MaxTokens),
		llm.WithTemperature(d.Temperature),
		llm.WithSystemPrompt(dc.Instruction),
	)
	if err != nil {
		return Action{}, fmt.Errorf("tool selection failed: %w", err)
	}

	if len(toolCalls) > 0 {
		return Invoke(toolCalls...), nil
	}
	return Finish(content.String()), nil
}

func (d *LLMDecider) answer(ctx context.Context, dc DecisionContext) (Action, error) {
	system := dc.Instruction
	if dc.Final && len(dc.Tools) > 0 {
		note, err := prompts.RenderInstruction(prompts.FinalTurnInstruction, prompts.InstructionData{})
		if err != nil {
			logger.Error("Failed to render final turn instruction", zap.Error(err))
		} else {
			system = system + "\n\n" + note
		}
	}

	var inference strings.Builder
	err := d.Model.GenerateInference(
		ctx, dc.Messages,
		func(chunk string) error {
			inference.WriteString(chunk)
			return nil
		},
		llm.WithMaxTokens(d.MaxTokens),
		llm.WithTemperature(d.Temperature),
		llm.WithSystemPrompt(system),
	)
	if err != nil {
		return Action{}, fmt.Errorf("inference failed: %w", err)
	}

	return Finish(inference.String()), nil
}
