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
)

// Ensure ProjectService implements the interface.
var _ driving.ProjectService = (*ProjectService)(nil)

// ProjectService manages projects and their checklists.
type ProjectService struct {
	store driven.ProjectStore
}

// NewProjectService creates a project service.
func NewProjectService(store driven.ProjectStore) *ProjectService {
	return &ProjectService{store: store}
}

// Create adds a project.
func (s *ProjectService) Create(ctx context.Context, name, description string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", domain.ErrInvalidInput)
	}

	now := time.Now()
	p := &domain.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.SaveProject(ctx, p); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}
	return p, nil
}

// List returns all projects.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.store.ListProjects(ctx)
}

// Get returns one project.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	return s.store.GetProject(ctx, id)
}

// Delete removes a project and its items.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteProject(ctx, id)
}

// AddItem appends a checklist item to a project.
func (s *ProjectService) AddItem(ctx context.Context, projectID, text string) (*domain.ChecklistItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: item text is required", domain.ErrInvalidInput)
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	items, err := s.store.ListItems(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	now := time.Now()
	item := &domain.ChecklistItem{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Text:      text,
		Position:  len(items),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}
	return item, nil
}

// SetItemDone marks a checklist item done or not done.
func (s *ProjectService) SetItemDone(
	ctx context.Context, projectID, itemID string, done bool,
) (*domain.ChecklistItem, error) {
	items, err := s.store.ListItems(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	for i := range items {
		if items[i].ID != itemID {
			continue
		}
		item := items[i]
		item.Done = done
		item.UpdatedAt = time.Now()
		if err := s.store.SaveItem(ctx, &item); err != nil {
			return nil, fmt.Errorf("save item: %w", err)
		}
		return &item, nil
	}
	return nil, domain.ErrNotFound
}

// Items returns a project's checklist in order.
func (s *ProjectService) Items(ctx context.Context, projectID string) ([]domain.ChecklistItem, error) {
	return s.store.ListItems(ctx, projectID)
}
