package agentboot

import (
	"strings"
	"testing"

	"github.com/SaiNageswarS/analytics-agent/prompts"
	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatToolInputsToMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		toolName string
		params   api.ToolCallFunctionArguments
		want     []string
	}{
		{
			name:     "no parameters",
			toolName: "get_data_tables",
			want:     []string{"Tool: `get\\_data\\_tables` (no parameters)"},
		},
		{
			name:     "ticker",
			toolName: "get_data_tables",
			params:   api.ToolCallFunctionArguments{"company_name": "SBIN.NS"},
			want:     []string{"Tool: `get\\_data\\_tables`", "Parameters:", "- **company\\_name**: SBIN.NS"},
		},
		{
			name:     "numbers and lists",
			toolName: "search",
			params: api.ToolCallFunctionArguments{
				"limit":   5,
				"sectors": []any{"banking", "IT", "FMCG"},
			},
			want: []string{"- **limit**: 5", "- **sectors**: banking, IT, FMCG"},
		},
		{
			name:     "markdown and html are escaped",
			toolName: "search<>",
			params:   api.ToolCallFunctionArguments{"query": "P&L *Q1* [TCS] | #1"},
			want:     []string{"Tool: `search&lt;&gt;`", "- **query**: P&L \\*Q1\\* \\[TCS\\] \\| \\#1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := formatToolInputsToMarkdown(tt.toolName, tt.params)
			for _, want := range tt.want {
				assert.Contains(t, md, want)
			}
		})
	}
}

func TestFormatToolInputsToMarkdownSortsParameters(t *testing.T) {
	params := api.ToolCallFunctionArguments{"z": "last", "a": "first", "m": "middle"}

	md := formatToolInputsToMarkdown("search", params)
	assert.Equal(t, md, formatToolInputsToMarkdown("search", params))

	a, m, z := strings.Index(md, "- **a**"), strings.Index(md, "- **m**"), strings.Index(md, "- **z**")
	assert.True(t, a < m && m < z, "parameters should be sorted by name")
}

func TestToolInputsFlowIntoSummarizationPrompt(t *testing.T) {
	toolInputs := formatToolInputsToMarkdown("search", api.ToolCallFunctionArguments{
		"query": "Reliance quarterly revenue",
	})

	systemPrompt, userPrompt, err := prompts.RenderSummarizationPrompt(
		"How did Reliance perform last quarter?",
		"Reliance reported higher retail and telecom revenue for the quarter.",
		toolInputs)
	require.NoError(t, err)

	assert.Contains(t, systemPrompt, "tool inputs")
	assert.Contains(t, userPrompt, "Tool Inputs:")
	assert.Contains(t, userPrompt, "Tool: `search`")
	assert.Contains(t, userPrompt, "Reliance quarterly revenue")
}
