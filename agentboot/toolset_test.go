package agentboot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func analyticsToolSet() []MCPTool {
	return []MCPTool{
		NewMCPToolBuilder("google_search", "Search the web").StringParam("query", "Search query", true).Build(),
		NewMCPToolBuilder("get_data_tables", "Fetch financial statements").StringParam("company_name", "Ticker", true).Build(),
	}
}

func TestLookupTool(t *testing.T) {
	tools := analyticsToolSet()

	tests := []struct {
		name  string
		query string
		found bool
	}{
		{name: "first tool", query: "google_search", found: true},
		{name: "second tool", query: "get_data_tables", found: true},
		{name: "unknown", query: "get_stock_price", found: false},
		{name: "case sensitive", query: "Google_Search", found: false},
		{name: "empty name", query: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, ok := lookupTool(tools, tt.query)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.query, tool.Function.Name)
			}
		})
	}

	_, ok := lookupTool(nil, "google_search")
	assert.False(t, ok)
}

func TestToolSchemasPreservesOrderAndParameters(t *testing.T) {
	schemas := toolSchemas(analyticsToolSet())

	if assert.Len(t, schemas, 2) {
		assert.Equal(t, "google_search", schemas[0].Function.Name)
		assert.Equal(t, "get_data_tables", schemas[1].Function.Name)
		assert.Equal(t, []string{"company_name"}, schemas[1].Function.Parameters.Required)
		assert.Contains(t, schemas[1].Function.Parameters.Properties, "company_name")
	}

	assert.Empty(t, toolSchemas(nil))
}
