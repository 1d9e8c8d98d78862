package driving

import (
	"context"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// ChatService answers questions grounded on the corpus.
type ChatService interface {
	// Ask sends a user message and returns the assistant reply.
	// An empty sessionID starts a new session.
	Ask(ctx context.Context, sessionID, message string) (*domain.ChatReply, error)

	// History returns the recent turns of a session.
	History(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)
}
