package driven

import (
	"context"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument inserts a document.
	// Returns domain.ErrAlreadyExists when the content hash is taken.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores all chunks of a document in one transaction.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// SaveDocumentWithChunks inserts a document and its chunks in one
	// transaction. Returns domain.ErrAlreadyExists when the content hash
	// is taken, in which case nothing is written.
	SaveDocumentWithChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// FindByContentHash returns the document with the given hash.
	// Returns domain.ErrNotFound when none exists.
	FindByContentHash(ctx context.Context, hash string) (*domain.Document, error)

	// ListDocuments returns the most recent documents first.
	ListDocuments(ctx context.Context, limit, offset int) ([]domain.Document, error)

	// SampleDocuments returns up to limit documents, oldest first.
	SampleDocuments(ctx context.Context, limit int) ([]domain.Document, error)

	// DocumentsByIDs loads the given documents. Missing IDs are skipped.
	DocumentsByIDs(ctx context.Context, ids []string) ([]domain.Document, error)

	// GetChunks retrieves all chunks for a document ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// ListChunksAfter pages through all chunks ordered by ID.
	ListChunksAfter(ctx context.Context, afterID string, limit int) ([]domain.Chunk, error)

	// ChunkExists reports whether a chunk row exists.
	ChunkExists(ctx context.Context, id string) (bool, error)

	// Counts returns the corpus counts used for change detection.
	Counts(ctx context.Context) (domain.CorpusSnapshot, error)
}

// TagStore persists append-only document tags.
type TagStore interface {
	// AddTags appends tags. Existing tags are never merged.
	AddTags(ctx context.Context, tags []domain.Tag) error

	// ListByDocument returns the tags of one document.
	ListByDocument(ctx context.Context, documentID string) ([]domain.Tag, error)

	// TopKeywords returns keywords ranked by distinct document count.
	TopKeywords(ctx context.Context, limit int) ([]domain.TagCount, error)

	// TopKeywordsFor ranks keywords across a set of documents.
	TopKeywordsFor(ctx context.Context, documentIDs []string, limit int) ([]domain.TagCount, error)

	// DocumentIDsByKeyword returns the documents carrying a keyword.
	DocumentIDsByKeyword(ctx context.Context, keyword string) ([]string, error)
}

// ClusterStore persists the current clustering result.
type ClusterStore interface {
	// ReplaceClusters deletes all clusters, inserts the given ones and
	// rewrites every document's cluster assignment in one transaction.
	// Documents absent from assignments get a NULL cluster.
	ReplaceClusters(ctx context.Context, clusters []domain.Cluster, assignments map[string]int) error

	// ListClusters returns all clusters ordered by size.
	ListClusters(ctx context.Context) ([]domain.Cluster, error)

	// FindByLabel returns the cluster with the given label.
	FindByLabel(ctx context.Context, label string) (*domain.Cluster, error)

	// DocumentIDsByCluster returns the members of a cluster.
	DocumentIDsByCluster(ctx context.Context, clusterID int) ([]string, error)
}
