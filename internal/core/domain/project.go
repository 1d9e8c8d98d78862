package domain

import "time"

// Project groups checklist items.
type Project struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChecklistItem is a task inside a project.
type ChecklistItem struct {
	ID        string
	ProjectID string
	Text      string
	Done      bool
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatRole identifies the speaker of a chat message.
type ChatRole string

// Chat roles.
const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleSystem    ChatRole = "system"
)

// ChatMessage is one turn of a chat session.
type ChatMessage struct {
	ID        string
	SessionID string
	Role      ChatRole
	Content   string
	CreatedAt time.Time
}

// ChatReply is the assistant answer with the chunks it was grounded on.
type ChatReply struct {
	SessionID string
	Answer    string
	Sources   []SearchResult
}
