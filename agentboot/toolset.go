package agentboot

import (
	"slices"

	"github.com/ollama/ollama/api"
)

// lookupTool resolves a model-requested tool name against the stage's tool set.
// Names are matched exactly.
func lookupTool(tools []MCPTool, name string) (MCPTool, bool) {
	i := slices.IndexFunc(tools, func(t MCPTool) bool { return t.Function.Name == name })
	if i < 0 {
		return MCPTool{}, false
	}
	return tools[i], true
}

// toolSchemas strips handlers so only the schema is advertised to the model.
func toolSchemas(tools []MCPTool) []api.Tool {
	schemas := make([]api.Tool, 0, len(tools))
	for _, t := range tools {
		schemas = append(schemas, t.Tool)
	}
	return schemas
}
