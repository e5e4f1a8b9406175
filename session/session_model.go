package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/SaiNageswarS/analytics-agent/agentboot"
	"github.com/SaiNageswarS/analytics-agent/llm"
	"github.com/SaiNageswarS/analytics-agent/memory"
	"github.com/SaiNageswarS/analytics-agent/pipeline"
	"github.com/SaiNageswarS/analytics-agent/state"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one user's conversation with the pipeline. Runs on the same
// session are serialized; different sessions run independently. Views and
// resets do not wait for a run in progress.
type Session struct {
	AppName   string
	UserID    string
	ID        string
	CreatedAt time.Time

	runMu sync.Mutex

	mu          sync.Mutex
	state       *state.Store
	history     *memory.Conversation
	updatedAt   time.Time
	maxMessages int
}

// View is the JSON representation of a session.
type View struct {
	ID             string         `json:"id"`
	AppName        string         `json:"appName"`
	UserID         string         `json:"userId"`
	State          map[string]any `json:"state"`
	Turns          int            `json:"turns"`
	LastUpdateTime int64          `json:"lastUpdateTime"`
}

func newSession(appName, userID, id string, initial map[string]any, maxMessages int) *Session {
	st := state.NewInitial()
	for k, v := range initial {
		st.Set(k, v)
	}

	now := time.Now()
	return &Session{
		AppName:     appName,
		UserID:      userID,
		ID:          id,
		CreatedAt:   now,
		state:       st,
		history:     memory.NewConversation(id, nil),
		updatedAt:   now,
		maxMessages: maxMessages,
	}
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := 0
	for _, m := range s.history.Messages {
		if m.Role == llm.RoleUser {
			turns++
		}
	}

	return View{
		ID:             s.ID,
		AppName:        s.AppName,
		UserID:         s.UserID,
		State:          s.state.Snapshot(),
		Turns:          turns,
		LastUpdateTime: s.updatedAt.Unix(),
	}
}

// Run executes p for message against this session's state. The question and
// final answer are appended to the session history.
func (s *Session) Run(ctx context.Context, p *pipeline.Sequential, message string, reporter agentboot.ProgressReporter) (*pipeline.Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	st := s.state
	history := slices.Clone(s.history.Messages)
	s.mu.Unlock()

	st.Set(state.KeyUserQuery, message)

	inv := &agentboot.Invocation{
		ID:        "e-" + uuid.NewString(),
		UserID:    s.UserID,
		SessionID: s.ID,
		Message:   message,
		History:   history,
		State:     st,
	}

	result, err := p.Run(ctx, inv, reporter)

	s.mu.Lock()
	// A reset during the run discards its outcome.
	if s.state == st {
		s.history.AddUserMessage(message)
		if result != nil && result.Status == pipeline.StatusCompleted {
			s.history.AddAssistantMessage(result.Answer)
		}
		s.history.Trim(s.maxMessages)
		s.updatedAt = time.Now()
	}
	s.mu.Unlock()

	if result != nil {
		titles := make([]string, 0, len(result.Charts))
		for _, chart := range result.Charts {
			titles = append(titles, chart.Title())
		}
		logger.Info("Session run finished",
			zap.String("session", s.ID),
			zap.String("invocation", inv.ID),
			zap.String("status", string(result.Status)),
			zap.Strings("charts", titles))
	}

	return result, err
}

// reset clears state and history back to a fresh session.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state.NewInitial()
	s.history = memory.NewConversation(s.ID, nil)
	s.updatedAt = time.Now()
}
