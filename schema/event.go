package schema

type EventKind string

const (
	EventProgress   EventKind = "progress"
	EventToolResult EventKind = "tool_result"
	EventAnswer     EventKind = "answer"
	EventError      EventKind = "error"
	EventComplete   EventKind = "complete"
)

type Part struct {
	Text string `json:"text,omitempty"`
}

type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Text concatenates all text parts.
func (c *Content) Text() string {
	if c == nil {
		return ""
	}
	out := ""
	for _, p := range c.Parts {
		out += p.Text
	}
	return out
}

type EventActions struct {
	StateDelta map[string]any `json:"stateDelta,omitempty"`
	Skipped    bool           `json:"skipped,omitempty"`
}

type ProgressUpdate struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type StreamError struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    string `json:"errorCode"`
}

// Event is one entry of the ordered sequence returned for a run. Author is the
// stage that produced it.
type Event struct {
	InvocationID string           `json:"invocationId,omitempty"`
	Author       string           `json:"author"`
	Kind         EventKind        `json:"kind"`
	Timestamp    int64            `json:"timestamp"`
	Content      *Content         `json:"content,omitempty"`
	Actions      *EventActions    `json:"actions,omitempty"`
	Progress     *ProgressUpdate  `json:"progress,omitempty"`
	ToolResult   *ToolResultChunk `json:"toolResult,omitempty"`
	Error        *StreamError     `json:"error,omitempty"`
}
