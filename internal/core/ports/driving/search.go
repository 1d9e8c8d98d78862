package driving

import (
	"context"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// SearchService provides search and corpus views to external actors.
type SearchService interface {
	// Search performs semantic search across all indexed chunks.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Stats summarises the corpus.
	Stats(ctx context.Context) (*domain.Stats, error)

	// Tags lists keywords ranked by document count.
	Tags(ctx context.Context, limit int) ([]domain.TagCount, error)

	// Recent lists the latest documents.
	Recent(ctx context.Context, limit int) ([]domain.Document, error)

	// Summary describes a cluster label or tag keyword.
	Summary(ctx context.Context, name string) (*domain.Summary, error)

	// GetDocument returns one document.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
}
