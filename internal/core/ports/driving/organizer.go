package driving

import (
	"context"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// Organizer tags documents and groups the corpus into clusters.
type Organizer interface {
	// AutoTag proposes keywords for a text.
	AutoTag(text string) []domain.TagSuggestion

	// TagDocument persists auto-tags for a document.
	TagDocument(ctx context.Context, doc *domain.Document) ([]domain.Tag, error)

	// RunClustering runs one clustering cycle. prev is the snapshot returned
	// by the previous cycle; the returned outcome carries the next one.
	// Zero fields of params take the configured values.
	RunClustering(
		ctx context.Context, prev domain.CorpusSnapshot, params domain.ClusteringParams,
	) (domain.ClusteringOutcome, error)
}
