package driven

import (
	"context"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// VectorStore holds one vector per chunk, keyed by chunk ID.
// The collection dimension is fixed when the store is first populated.
type VectorStore interface {
	// Upsert inserts or replaces one vector.
	Upsert(ctx context.Context, rec domain.VectorRecord) error

	// UpsertBatch inserts or replaces vectors atomically per batch.
	UpsertBatch(ctx context.Context, recs []domain.VectorRecord) error

	// Search returns the k most similar vectors by cosine similarity.
	// A nil filter matches everything.
	Search(ctx context.Context, query []float32, k int, filter *domain.VectorFilter) ([]domain.VectorHit, error)

	// Delete removes vectors by ID. Missing IDs are ignored.
	Delete(ctx context.Context, ids ...string) error

	// Has reports whether a vector exists for the ID.
	Has(ctx context.Context, id string) (bool, error)

	// IDs returns every stored vector ID.
	IDs(ctx context.Context) ([]string, error)

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the collection dimension.
	Dimensions() int

	// Close releases the store directory.
	Close() error
}
