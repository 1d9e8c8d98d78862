package driven

import (
	"context"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// EmailCredentialStore persists mailbox accounts.
type EmailCredentialStore interface {
	// SaveCredential creates or updates an account.
	SaveCredential(ctx context.Context, cred *domain.EmailCredential) error

	// GetCredential retrieves an account by ID.
	GetCredential(ctx context.Context, id string) (*domain.EmailCredential, error)

	// ListCredentials returns all accounts.
	ListCredentials(ctx context.Context) ([]domain.EmailCredential, error)

	// UpdateLastUID records the highest ingested UID for an account.
	UpdateLastUID(ctx context.Context, id string, uid uint32) error

	// DeleteCredential removes an account.
	DeleteCredential(ctx context.Context, id string) error
}

// ProjectStore persists projects and their checklists.
type ProjectStore interface {
	SaveProject(ctx context.Context, p *domain.Project) error
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
	SaveItem(ctx context.Context, item *domain.ChecklistItem) error
	ListItems(ctx context.Context, projectID string) ([]domain.ChecklistItem, error)
}

// ChatStore persists chat history.
type ChatStore interface {
	// AppendMessage stores one chat turn.
	AppendMessage(ctx context.Context, msg *domain.ChatMessage) error

	// RecentMessages returns the last limit messages of a session, oldest first.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)
}
