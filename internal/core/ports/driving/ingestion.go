package driving

import (
	"context"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// IngestionService is the single entry point for new content.
type IngestionService interface {
	// IngestFile reads, deduplicates by content hash and indexes a file.
	IngestFile(ctx context.Context, path string) (*domain.IngestResult, error)

	// IngestUpload indexes file bytes received over the API.
	IngestUpload(ctx context.Context, name string, data []byte) (*domain.IngestResult, error)

	// IngestText semantically deduplicates and indexes a text snippet.
	IngestText(ctx context.Context, text, source string) (*domain.IngestResult, error)

	// IngestEmail semantically deduplicates and indexes a parsed message.
	IngestEmail(ctx context.Context, msg domain.EmailMessage) (*domain.IngestResult, error)

	// Reconcile repairs divergence between chunk rows and vectors.
	Reconcile(ctx context.Context) (*domain.ReconcileReport, error)
}

// FileIngester is the subset used by the filesystem watcher.
type FileIngester interface {
	IngestFile(ctx context.Context, path string) (*domain.IngestResult, error)
}

// EmailIngester is the subset used by mail pollers.
type EmailIngester interface {
	IngestEmail(ctx context.Context, msg domain.EmailMessage) (*domain.IngestResult, error)
}
