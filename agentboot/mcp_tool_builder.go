package agentboot

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/SaiNageswarS/analytics-agent/schema"
	"github.com/ollama/ollama/api"
)

// MCPToolBuilder assembles a tool's JSON schema and handler.
type MCPToolBuilder struct {
	tool MCPTool
}

func NewMCPToolBuilder(name, description string) *MCPToolBuilder {
	b := &MCPToolBuilder{}
	b.tool.Type = "function"
	b.tool.Function.Name = name
	b.tool.Function.Description = description
	b.tool.Function.Parameters.Type = "object"
	b.tool.Function.Parameters.Properties = map[string]api.ToolProperty{}
	return b
}

func (b *MCPToolBuilder) StringParam(name, desc string, required bool) *MCPToolBuilder {
	return b.param(name, api.ToolProperty{Type: api.PropertyType{"string"}, Description: desc}, required)
}

func (b *MCPToolBuilder) StringSliceParam(name, desc string, required bool) *MCPToolBuilder {
	return b.param(name, api.ToolProperty{
		Type:        api.PropertyType{"array"},
		Items:       map[string]any{"type": "string"},
		Description: desc,
	}, required)
}

func (b *MCPToolBuilder) IntParam(name, desc string, required bool) *MCPToolBuilder {
	return b.param(name, api.ToolProperty{Type: api.PropertyType{"integer"}, Description: desc}, required)
}

// Summarize marks the tool's results for condensing by the mini model before
// they enter the transcript.
func (b *MCPToolBuilder) Summarize(enabled bool) *MCPToolBuilder {
	b.tool.SummarizeContext = enabled
	return b
}

func (b *MCPToolBuilder) WithHandler(fn func(ctx context.Context, params api.ToolCallFunctionArguments) <-chan *schema.ToolResultChunk) *MCPToolBuilder {
	b.tool.Handler = fn
	return b
}

func (b *MCPToolBuilder) Build() MCPTool {
	return b.tool
}

func (b *MCPToolBuilder) param(name string, p api.ToolProperty, required bool) *MCPToolBuilder {
	params := &b.tool.Function.Parameters
	params.Properties[name] = p
	if required && !slices.Contains(params.Required, name) {
		params.Required = append(params.Required, name)
	}
	return b
}

// ToolResultChunkBuilder builds the chunks a tool handler yields.
type ToolResultChunkBuilder struct {
	chk *schema.ToolResultChunk
}

func NewToolResultChunk() *ToolResultChunkBuilder {
	return &ToolResultChunkBuilder{chk: &schema.ToolResultChunk{Metadata: map[string]string{}}}
}

func (b *ToolResultChunkBuilder) Sentences(sentences ...string) *ToolResultChunkBuilder {
	b.chk.Sentences = append(b.chk.Sentences, sentences...)
	return b
}

func (b *ToolResultChunkBuilder) Attribution(attr string) *ToolResultChunkBuilder {
	b.chk.Attribution = attr
	return b
}

func (b *ToolResultChunkBuilder) Title(t string) *ToolResultChunkBuilder {
	b.chk.Title = t
	return b
}

func (b *ToolResultChunkBuilder) MetadataKV(key, value string) *ToolResultChunkBuilder {
	b.chk.Metadata[key] = value
	return b
}

func (b *ToolResultChunkBuilder) MetadataMap(m map[string]string) *ToolResultChunkBuilder {
	maps.Copy(b.chk.Metadata, m)
	return b
}

func (b *ToolResultChunkBuilder) ToolName(name string) *ToolResultChunkBuilder {
	b.chk.ToolName = name
	return b
}

// Error marks the chunk as a failed result; the message travels to the model as data.
func (b *ToolResultChunkBuilder) Error(errMsg string) *ToolResultChunkBuilder {
	b.chk.Error = errMsg
	return b
}

func (b *ToolResultChunkBuilder) Build() *schema.ToolResultChunk {
	return b.chk
}

// StringArg reads a string argument from a tool call, trimming whitespace.
// Non-string values are formatted.
func StringArg(params api.ToolCallFunctionArguments, name string) string {
	v, ok := params[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
