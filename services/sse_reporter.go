package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/SaiNageswarS/analytics-agent/schema"
)

// SSEReporter writes every pipeline event to the client as a server-sent event.
type SSEReporter struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
}

func NewSSEReporter(w io.Writer, flusher http.Flusher) *SSEReporter {
	return &SSEReporter{w: w, flusher: flusher}
}

func (r *SSEReporter) Send(event *schema.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeSSE(r.w, string(data)); err != nil {
		return err
	}
	if r.flusher != nil {
		r.flusher.Flush()
	}
	return nil
}

func writeSSE(w io.Writer, data string) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
