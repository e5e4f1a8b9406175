package memory

import (
	"slices"

	"github.com/SaiNageswarS/analytics-agent/llm"
)

// Conversation is an ordered message transcript. A session keeps one for the
// questions and final answers exchanged so far; each stage run builds a private
// copy that also accumulates tool results.
type Conversation struct {
	ID       string        `json:"id"`
	Messages []llm.Message `json:"messages"`
}

func NewConversation(id string, history []llm.Message) *Conversation {
	return &Conversation{ID: id, Messages: slices.Clone(history)}
}

func (m *Conversation) AddUserMessage(content string) {
	m.Messages = append(m.Messages, llm.Message{Role: llm.RoleUser, Content: content})
}

func (m *Conversation) AddAssistantMessage(content string) {
	m.Messages = append(m.Messages, llm.Message{Role: llm.RoleAssistant, Content: content})
}

func (m *Conversation) AddToolResult(content string) {
	m.Messages = append(m.Messages, llm.Message{Role: llm.RoleUser, Content: content, IsToolResult: true})
}

// Trim keeps the last maxUserTurns user messages and everything that follows them.
func (m *Conversation) Trim(maxUserTurns int) {
	m.Messages = trimForSession(m.Messages, maxUserTurns)
}

// trimForSession keeps the last maxMsgs "user" messages and any number of
// "assistant" (and tool result) messages that follow them.
// If there are fewer than maxMsgs user messages total, it returns msgs unchanged.
func trimForSession(msgs []llm.Message, maxMsgs int) []llm.Message {
	if maxMsgs <= 0 || len(msgs) == 0 {
		return []llm.Message{}
	}

	usersSeen := 0
	start := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == llm.RoleUser && !msgs[i].IsToolResult {
			usersSeen++
			if usersSeen == maxMsgs {
				start = i
				break
			}
		}
	}

	return msgs[start:]
}
