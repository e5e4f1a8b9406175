package agentboot

import (
	"sync"
	"time"

	"github.com/SaiNageswarS/analytics-agent/schema"
)

// ProgressReporter is an interface for reporting agent execution progress
type ProgressReporter interface {
	// Send sends a progress update
	Send(event *schema.Event) error
}

// NoOpProgressReporter implements ProgressReporter with no-op operations
type NoOpProgressReporter struct{}

// Send does nothing
func (r *NoOpProgressReporter) Send(event *schema.Event) error {
	return nil
}

// CollectingReporter buffers every event in send order.
type CollectingReporter struct {
	mu     sync.Mutex
	events []*schema.Event
}

func (r *CollectingReporter) Send(event *schema.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *CollectingReporter) Events() []*schema.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*schema.Event, len(r.events))
	copy(out, r.events)
	return out
}

// authorReporter stamps events with the stage that produced them.
type authorReporter struct {
	next         ProgressReporter
	author       string
	invocationID string
}

// WithAuthor wraps reporter so events without an author are attributed to author.
func WithAuthor(reporter ProgressReporter, author, invocationID string) ProgressReporter {
	return &authorReporter{next: reporter, author: author, invocationID: invocationID}
}

func (r *authorReporter) Send(event *schema.Event) error {
	if event.Author == "" {
		event.Author = r.author
	}
	if event.InvocationID == "" {
		event.InvocationID = r.invocationID
	}
	return r.next.Send(event)
}

// Helper functions for creating progress events
func NewProgressUpdate(stage, message string) *schema.Event {
	return &schema.Event{
		Kind:      schema.EventProgress,
		Timestamp: time.Now().UnixMilli(),
		Progress: &schema.ProgressUpdate{
			Stage:   stage,
			Message: message,
		},
	}
}

// NewToolExecutionResult creates a tool result event
func NewToolExecutionResult(toolName string, result *schema.ToolResultChunk) *schema.Event {
	result.ToolName = toolName

	return &schema.Event{
		Kind:       schema.EventToolResult,
		Timestamp:  time.Now().UnixMilli(),
		ToolResult: result,
	}
}

// NewAnswer creates the event a stage emits with its output; the output is
// also reported as a state delta on outputKey.
func NewAnswer(outputKey, text string, skipped bool) *schema.Event {
	return &schema.Event{
		Kind:      schema.EventAnswer,
		Timestamp: time.Now().UnixMilli(),
		Content: &schema.Content{
			Role:  "model",
			Parts: []schema.Part{{Text: text}},
		},
		Actions: &schema.EventActions{
			StateDelta: map[string]any{outputKey: text},
			Skipped:    skipped,
		},
	}
}

// NewStreamComplete creates the terminal event of a run.
func NewStreamComplete(answer string) *schema.Event {
	return &schema.Event{
		Kind:      schema.EventComplete,
		Timestamp: time.Now().UnixMilli(),
		Content: &schema.Content{
			Role:  "model",
			Parts: []schema.Part{{Text: answer}},
		},
	}
}

// NewStreamError creates an error event
func NewStreamError(message, code string) *schema.Event {
	return &schema.Event{
		Kind:      schema.EventError,
		Timestamp: time.Now().UnixMilli(),
		Error: &schema.StreamError{
			ErrorMessage: message,
			ErrorCode:    code,
		},
	}
}
