package agentboot

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/SaiNageswarS/analytics-agent/metrics"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

var ErrUnknownTool = errors.New("unknown tool")

// RunTool executes one tool call under the configured per-call timeout and
// returns its rendered markdown. A timeout is rendered as a failed tool result
// rather than returned as an error.
func (a *Agent) RunTool(ctx context.Context, reporter ProgressReporter, query string, selection *api.ToolCall) (string, error) {
	toolName := selection.Function.Name
	reporter.Send(NewProgressUpdate(
		a.config.Name,
		fmt.Sprintf("Running tool %s with arguments: %v", toolName, selection.Function.Arguments)))

	tool, ok := lookupTool(a.config.Tools, toolName)
	if !ok || tool.Handler == nil {
		logger.Error("Model requested an unknown tool", zap.String("tool", toolName))
		metrics.RecordToolCall(toolName, metrics.ToolFailure)
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, toolName)
	}

	// Format tool inputs for summarization context
	toolInputsMD := formatToolInputsToMarkdown(toolName, selection.Function.Arguments)

	toolCtx := ctx
	if a.config.ToolTimeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, a.config.ToolTimeout)
		defer cancel()
	}

	toolResultChan := tool.Handler(toolCtx, selection.Function.Arguments)

	r := NewToolResultRenderer(
		WithReporter(reporter, toolName),
		WithSummarizationModel(a.config.MiniModel),
	)

	toolResultChunks, err := r.Render(toolCtx, query, toolInputsMD, toolResultChan, tool.SummarizeContext)
	if errors.Is(toolCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		logger.Error("Tool timed out", zap.String("tool", toolName), zap.Duration("timeout", a.config.ToolTimeout))
		metrics.RecordToolCall(toolName, metrics.ToolTimeout)

		timeout := NewToolResultChunk().
			Title(toolName).
			Error(fmt.Sprintf("tool %s timed out after %s", toolName, a.config.ToolTimeout)).
			Build()
		reporter.Send(NewToolExecutionResult(toolName, timeout))
		toolResultChunks = append(toolResultChunks, renderChunk(timeout))
		return strings.Join(toolResultChunks, "\n\n"), nil
	}
	if err != nil {
		logger.Error("Error rendering tool result", zap.String("tool", toolName), zap.Error(err))
		metrics.RecordToolCall(toolName, metrics.ToolFailure)
		reporter.Send(NewStreamError(err.Error(), "tool_execution_failed"))
		return "", err
	}

	metrics.RecordToolCall(toolName, metrics.ToolSuccess)
	reporter.Send(NewProgressUpdate(
		a.config.Name,
		fmt.Sprintf("Tool %s completed successfully", toolName)))
	return strings.Join(toolResultChunks, "\n\n"), nil
}

// formatToolInputsToMarkdown describes a tool call for the summarization
// prompt, with parameters sorted by name.
func formatToolInputsToMarkdown(toolName string, params api.ToolCallFunctionArguments) string {
	if len(params) == 0 {
		return fmt.Sprintf("Tool: `%s` (no parameters)", mdEscape(toolName))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tool: `%s`\n\nParameters:\n", mdEscape(toolName))
	for _, k := range slices.Sorted(maps.Keys(params)) {
		fmt.Fprintf(&b, "- **%s**: %s\n", mdEscape(k), mdEscape(argText(params[k])))
	}
	return b.String()
}

func argText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	"<", "&lt;",
	">", "&gt;",
)

// mdEscape escapes markdown syntax in headings, list items and table cells.
func mdEscape(s string) string {
	return mdEscaper.Replace(s)
}
