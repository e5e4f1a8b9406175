package schema

// ToolResultChunk is one element of the lazy result sequence a tool handler yields.
type ToolResultChunk struct {
	// Primary content - can be multiple sentences or a single result
	Sentences []string `json:"sentences,omitempty"`

	// Source attribution - where the information came from
	Attribution string `json:"attribution,omitempty"`

	Title    string            `json:"title,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`

	// Error is set when the tool could not produce this chunk. Errors travel as data.
	Error    string `json:"error,omitempty"`
	ToolName string `json:"tool_name,omitempty"`
}
