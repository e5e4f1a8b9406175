package agentboot

import (
	"context"
	"testing"

	"github.com/SaiNageswarS/analytics-agent/schema"
	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPToolBuilderStartsEmpty(t *testing.T) {
	tool := NewMCPToolBuilder("google_search", "Search the web for recent business news").Build()

	assert.Equal(t, "function", tool.Type)
	assert.Equal(t, "google_search", tool.Function.Name)
	assert.Equal(t, "Search the web for recent business news", tool.Function.Description)
	assert.Equal(t, "object", tool.Function.Parameters.Type)
	assert.Empty(t, tool.Function.Parameters.Properties)
	assert.Nil(t, tool.Function.Parameters.Required)
	assert.False(t, tool.SummarizeContext)
	assert.Nil(t, tool.Handler)
}

func TestMCPToolBuilderParams(t *testing.T) {
	tool := NewMCPToolBuilder("get_data_tables", "Fetches financial statements for a ticker").
		StringParam("company_name", "Ticker symbol such as SBIN.NS", true).
		StringSliceParam("statements", "Statements to include", false).
		IntParam("years", "Number of fiscal years", false).
		StringParam("company_name", "Ticker symbol such as SBIN.NS", true).
		Build()

	props := tool.Function.Parameters.Properties
	require.Len(t, props, 3)

	tests := []struct {
		param    string
		propType api.PropertyType
		items    any
	}{
		{param: "company_name", propType: api.PropertyType{"string"}},
		{param: "statements", propType: api.PropertyType{"array"}, items: map[string]any{"type": "string"}},
		{param: "years", propType: api.PropertyType{"integer"}},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.propType, props[tt.param].Type)
			assert.Equal(t, tt.items, props[tt.param].Items)
		})
	}

	assert.Equal(t, []string{"company_name"}, tool.Function.Parameters.Required, "required names are not duplicated")
}

func TestMCPToolBuilderHandlerAndSummarize(t *testing.T) {
	var received string
	tool := NewMCPToolBuilder("google_search", "Search").
		StringParam("query", "Search query", true).
		Summarize(true).
		WithHandler(func(ctx context.Context, params api.ToolCallFunctionArguments) <-chan *schema.ToolResultChunk {
			received = StringArg(params, "query")
			ch := make(chan *schema.ToolResultChunk)
			close(ch)
			return ch
		}).
		Build()

	assert.True(t, tool.SummarizeContext)
	require.NotNil(t, tool.Handler)

	for range tool.Handler(context.Background(), api.ToolCallFunctionArguments{"query": " TCS order book "}) {
	}
	assert.Equal(t, "TCS order book", received)
}

func TestToolResultChunkBuilder(t *testing.T) {
	chunk := NewToolResultChunk().
		Title("SBIN.NS").
		Sentences(`{"status":"success"}`).
		Sentences("Balance sheet in INR crore.").
		Attribution("Yahoo Finance").
		MetadataKV("status", "success").
		MetadataMap(map[string]string{"exchange": "NSE", "status": "partial"}).
		ToolName("get_data_tables").
		Build()

	assert.Equal(t, "SBIN.NS", chunk.Title)
	assert.Equal(t, []string{`{"status":"success"}`, "Balance sheet in INR crore."}, chunk.Sentences)
	assert.Equal(t, "Yahoo Finance", chunk.Attribution)
	assert.Equal(t, map[string]string{"exchange": "NSE", "status": "partial"}, chunk.Metadata)
	assert.Equal(t, "get_data_tables", chunk.ToolName)
	assert.Empty(t, chunk.Error)

	failed := NewToolResultChunk().Title("XYZ").Error("ticker not found").Build()
	assert.Equal(t, "ticker not found", failed.Error)
	assert.NotNil(t, failed.Metadata)
	assert.Empty(t, failed.Sentences)
}

func TestStringArg(t *testing.T) {
	params := api.ToolCallFunctionArguments{
		"company_name": "  SBIN.NS ",
		"limit":        5,
		"empty":        nil,
	}

	assert.Equal(t, "SBIN.NS", StringArg(params, "company_name"))
	assert.Equal(t, "5", StringArg(params, "limit"))
	assert.Equal(t, "", StringArg(params, "empty"))
	assert.Equal(t, "", StringArg(params, "absent"))
}

func BenchmarkMCPToolBuilderBuild(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = NewMCPToolBuilder("get_data_tables", "Fetches financial statements").
			StringParam("company_name", "Ticker", true).
			StringSliceParam("statements", "Statements", false).
			Summarize(false).
			Build()
	}
}
