package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
	"github.com/custodia-labs/promethean-light/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

const (
	chatSources = 5
	chatHistory = 10
)

const fallbackChatSystem = "Answer using only these excerpts from the user's knowledge base:\n%s"

// Retriever finds the chunks a chat answer is grounded on.
type Retriever interface {
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

// ChatService answers questions with retrieval-augmented generation.
type ChatService struct {
	retriever Retriever
	llm       driven.LLMService
	history   driven.ChatStore
	prompts   driven.PromptStore
}

// NewChatService creates a chat service. llm may be nil, in which case
// Ask returns domain.ErrLLMUnavailable.
func NewChatService(retriever Retriever, llm driven.LLMService, history driven.ChatStore) *ChatService {
	return &ChatService{
		retriever: retriever,
		llm:       llm,
		history:   history,
	}
}

// SetPromptStore sets the template source for the system prompt.
func (s *ChatService) SetPromptStore(p driven.PromptStore) {
	s.prompts = p
}

// Ask answers a message using the nearest chunks and the session history.
func (s *ChatService) Ask(ctx context.Context, sessionID, message string) (*domain.ChatReply, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrInvalidInput)
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	sources, err := s.retriever.Search(ctx, message, domain.SearchOptions{Limit: chatSources})
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	var past []domain.ChatMessage
	if s.history != nil {
		past, err = s.history.RecentMessages(ctx, sessionID, chatHistory)
		if err != nil {
			logger.Warn("Chat history for %s unavailable: %v", sessionID, err)
		}
	}

	messages := make([]driven.ChatMessage, 0, len(past)+2)
	messages = append(messages, driven.ChatMessage{Role: string(domain.ChatRoleSystem), Content: s.systemPrompt(sources)})
	for _, m := range past {
		messages = append(messages, driven.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, driven.ChatMessage{Role: string(domain.ChatRoleUser), Content: message})

	answer, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: 0.3})
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	answer = strings.TrimSpace(answer)

	if s.history != nil {
		now := time.Now()
		for _, m := range []domain.ChatMessage{
			{Role: domain.ChatRoleUser, Content: message, CreatedAt: now},
			{Role: domain.ChatRoleAssistant, Content: answer, CreatedAt: now.Add(time.Millisecond)},
		} {
			m.ID = uuid.New().String()
			m.SessionID = sessionID
			if err := s.history.AppendMessage(ctx, &m); err != nil {
				logger.Warn("Saving chat turn: %v", err)
			}
		}
	}

	return &domain.ChatReply{SessionID: sessionID, Answer: answer, Sources: sources}, nil
}

// History returns the recent turns of a session.
func (s *ChatService) History(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidInput
	}
	if s.history == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = chatHistory
	}
	return s.history.RecentMessages(ctx, sessionID, limit)
}

func (s *ChatService) systemPrompt(sources []domain.SearchResult) string {
	template := fallbackChatSystem
	if s.prompts != nil {
		if t, err := s.prompts.Load(driven.PromptChatSystem); err == nil {
			template = t
		}
	}

	var excerpts strings.Builder
	if len(sources) == 0 {
		excerpts.WriteString("(no matching excerpts)")
	}
	for _, r := range sources {
		fmt.Fprintf(&excerpts, "[%s]\n%s\n\n", r.Document.Source, r.Chunk.Content)
	}
	return fmt.Sprintf(template, excerpts.String())
}
