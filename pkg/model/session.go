package model

import (
	"time"

	"google.golang.org/genai"
)

// MaxSessionEntries caps the history kept per session. Older entries are dropped silently.
const MaxSessionEntries = 9

type SessionID string

// DefaultSessionID is used when a caller does not supply one.
const DefaultSessionID SessionID = "default"

// Session is the conversation history of one caller-chosen session key
type Session struct {
	ID        SessionID        `json:"id"`
	Contents  []*genai.Content `json:"contents"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Truncate keeps only the most recent MaxSessionEntries contents.
func (s *Session) Truncate() {
	if len(s.Contents) > MaxSessionEntries {
		s.Contents = append([]*genai.Content{}, s.Contents[len(s.Contents)-MaxSessionEntries:]...)
	}
}

// Turn is one user/assistant exchange to be appended to a session.
type Turn struct {
	User string
	// Assistant is the plain reply. It is recorded only when no tool was invoked.
	Assistant  string
	ToolCall   *genai.FunctionCall
	ToolResult *genai.FunctionResponse
}

// Contents converts the turn to history entries: the user turn, then either the
// plain reply or the tool invocation followed by its result.
func (t *Turn) Contents() []*genai.Content {
	contents := []*genai.Content{
		genai.NewContentFromText(t.User, genai.RoleUser),
	}

	if t.ToolCall == nil {
		contents = append(contents, genai.NewContentFromText(t.Assistant, genai.RoleModel))
		return contents
	}

	contents = append(contents, &genai.Content{
		Role:  genai.RoleModel,
		Parts: []*genai.Part{{FunctionCall: t.ToolCall}},
	})
	if t.ToolResult != nil {
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{FunctionResponse: t.ToolResult}},
		})
	}
	return contents
}
