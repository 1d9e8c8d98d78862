package driving

import (
	"context"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// ProjectService manages projects and checklists.
type ProjectService interface {
	Create(ctx context.Context, name, description string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Get(ctx context.Context, id string) (*domain.Project, error)
	Delete(ctx context.Context, id string) error
	AddItem(ctx context.Context, projectID, text string) (*domain.ChecklistItem, error)
	SetItemDone(ctx context.Context, projectID, itemID string, done bool) (*domain.ChecklistItem, error)
	Items(ctx context.Context, projectID string) ([]domain.ChecklistItem, error)
}
