package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
)

// ==================== Project Store ====================

type projectStore struct {
	store *Store
}

var _ driven.ProjectStore = (*projectStore)(nil)

// SaveProject stores or updates a project.
func (s *projectStore) SaveProject(ctx context.Context, p *domain.Project) error {
	if p == nil || p.ID == "" || p.Name == "" {
		return domain.ErrInvalidInput
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			updated_at = excluded.updated_at
	`, p.ID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("saving project: %w", domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID.
func (s *projectStore) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning project: %w", err)
	}
	return &p, nil
}

// ListProjects returns projects by name.
func (s *projectStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at FROM projects ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}

	return projects, nil
}

// DeleteProject removes a project and its checklist.
func (s *projectStore) DeleteProject(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveItem stores or updates a checklist item.
func (s *projectStore) SaveItem(ctx context.Context, item *domain.ChecklistItem) error {
	if item == nil || item.ID == "" || item.ProjectID == "" {
		return domain.ErrInvalidInput
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO checklist_items (id, project_id, text, done, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			done = excluded.done,
			position = excluded.position,
			updated_at = excluded.updated_at
	`, item.ID, item.ProjectID, item.Text, boolToInt(item.Done), item.Position, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving checklist item: %w", err)
	}
	return nil
}

// ListItems returns a project's checklist in order.
func (s *projectStore) ListItems(ctx context.Context, projectID string) ([]domain.ChecklistItem, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, project_id, text, done, position, created_at, updated_at
		FROM checklist_items WHERE project_id = ?
		ORDER BY position
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying checklist items: %w", err)
	}
	defer rows.Close()

	var items []domain.ChecklistItem //nolint:prealloc // size unknown from query
	for rows.Next() {
		var item domain.ChecklistItem
		var done int
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.Text, &done, &item.Position,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning checklist item: %w", err)
		}
		item.Done = done == 1
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating checklist items: %w", err)
	}

	return items, nil
}

// ==================== Chat Store ====================

type chatStore struct {
	store *Store
}

var _ driven.ChatStore = (*chatStore)(nil)

// AppendMessage stores one chat turn.
func (s *chatStore) AppendMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if msg == nil || msg.ID == "" || msg.SessionID == "" {
		return domain.ErrInvalidInput
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)
	`, msg.ID, msg.SessionID, string(msg.Role), msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving chat message: %w", err)
	}
	return nil
}

// RecentMessages returns the last limit turns, oldest first.
func (s *chatStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at FROM (
			SELECT rowid AS rid, id, session_id, role, content, created_at
			FROM chat_messages WHERE session_id = ?
			ORDER BY rid DESC
			LIMIT ?
		) ORDER BY rid ASC
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer rows.Close()

	var msgs []domain.ChatMessage //nolint:prealloc // size unknown from query
	for rows.Next() {
		var msg domain.ChatMessage
		var role string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		msg.Role = domain.ChatRole(role)
		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat history: %w", err)
	}

	return msgs, nil
}
