package agentboot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SaiNageswarS/analytics-agent/memory"
	"github.com/SaiNageswarS/analytics-agent/prompts"
	"github.com/SaiNageswarS/analytics-agent/state"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

var ErrNoDecider = errors.New("agent has no decider configured")

// Run executes one stage turn: decide, run the requested tools, feed their
// results back, and repeat until the decider finishes or MaxTurns is spent.
// A spent budget forces one last tool-free decision.
func (a *Agent) Run(ctx context.Context, inv *Invocation, reporter ProgressReporter) (string, error) {
	if a.config.Decider == nil {
		return "", ErrNoDecider
	}
	if reporter == nil {
		reporter = &NoOpProgressReporter{}
	}

	started := time.Now()

	instruction, err := a.instruction(inv.State)
	if err != nil {
		return "", fmt.Errorf("render instruction for %s: %w", a.config.Name, err)
	}

	conversation := memory.NewConversation(inv.SessionID, inv.History)
	conversation.AddUserMessage(inv.Message)

	dc := DecisionContext{Instruction: instruction, Tools: a.config.Tools}

	for turn := 0; turn < a.config.MaxTurns; turn++ {
		dc.Turn = turn
		dc.Messages = conversation.Messages

		action, err := a.config.Decider.DecideNextAction(ctx, dc)
		if err != nil {
			reporter.Send(NewStreamError(err.Error(), "decision_failed"))
			return "", err
		}

		if action.IsFinish() {
			a.logCompletion(turn+1, started)
			return action.Output, nil
		}

		for _, toolCall := range action.ToolCalls {
			toolResultContext, err := a.RunTool(ctx, reporter, inv.Message, &toolCall)
			if err != nil {
				conversation.AddToolResult(fmt.Sprintf("Tool %s failed: %s", toolCall.Function.Name, err.Error()))
				continue
			}

			conversation.AddToolResult(toolResultContext)
		}
	}

	dc.Turn = a.config.MaxTurns
	dc.Messages = conversation.Messages
	dc.Final = true

	action, err := a.config.Decider.DecideNextAction(ctx, dc)
	if err != nil {
		reporter.Send(NewStreamError(err.Error(), "decision_failed"))
		return "", err
	}
	if !action.IsFinish() {
		logger.Error("Decider requested tools after the turn budget was spent",
			zap.String("agent", a.config.Name), zap.Int("tool_calls", len(action.ToolCalls)))
	}

	a.logCompletion(a.config.MaxTurns+1, started)
	return action.Output, nil
}

func (a *Agent) instruction(st *state.Store) (string, error) {
	if a.config.Instruction == "" {
		return a.config.SystemPrompt, nil
	}

	data := prompts.InstructionData{}
	if st != nil {
		data.UserQuery = st.UserQuery()
		data.QueryKeyParams, _ = st.QueryParamsRaw()
		data.RetrievedContent = st.RetrievedContent()
		data.ChartObjects = st.ChartObjects()
		data.HasCharts = len(st.Charts()) > 0
	}

	return prompts.RenderInstruction(a.config.Instruction, data)
}

func (a *Agent) logCompletion(turns int, started time.Time) {
	logger.Info("Agent run completed",
		zap.String("agent", a.config.Name),
		zap.Int("decisions", turns),
		zap.Duration("elapsed", time.Since(started)))
}
