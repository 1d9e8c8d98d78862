package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
	"github.com/custodia-labs/promethean-light/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// reconcilePageSize is how many chunk rows the repair sweep loads at once.
const reconcilePageSize = 256

// Skip reasons reported in IngestResult.Reason.
const (
	reasonBinary     = "binary or non-UTF-8 content"
	reasonEmpty      = "empty content"
	reasonUnreadable = "unreadable file"
	reasonMalformed  = "malformed document"
)

// Tagger attaches keywords to a freshly ingested document.
type Tagger interface {
	TagDocument(ctx context.Context, doc *domain.Document) ([]domain.Tag, error)
}

// IngestionService is the single entry point for new content. It commits
// document and chunk rows first and vectors second; a failure between the
// two steps is repaired by Reconcile.
type IngestionService struct {
	docs      driven.DocumentStore
	vectors   driven.VectorStore
	embedder  driven.EmbeddingService
	pipeline  driven.PostProcessorPipeline
	files     driven.FileReader
	tagger    Tagger
	cipher    driven.Cipher
	blobs     driven.BlobStore
	extractor driven.TextExtractor
	settings  domain.IngestSettings
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(
	docs driven.DocumentStore,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	pipeline driven.PostProcessorPipeline,
	files driven.FileReader,
	settings domain.IngestSettings,
) *IngestionService {
	return &IngestionService{
		docs:     docs,
		vectors:  vectors,
		embedder: embedder,
		pipeline: pipeline,
		files:    files,
		settings: settings,
	}
}

// SetTagger sets the per-document auto-tagger.
func (s *IngestionService) SetTagger(t Tagger) {
	s.tagger = t
}

// SetCipher makes every entry point fail with domain.ErrLocked until the
// cipher is unlocked.
func (s *IngestionService) SetCipher(c driven.Cipher) {
	s.cipher = c
}

// SetBlobStore enables encrypted copies of ingested files.
func (s *IngestionService) SetBlobStore(b driven.BlobStore) {
	s.blobs = b
}

// SetExtractor enables text extraction for structured formats such as
// DOCX and HTML. Without one, files are indexed only when their raw bytes
// are valid UTF-8 text.
func (s *IngestionService) SetExtractor(e driven.TextExtractor) {
	s.extractor = e
}

// IngestFile reads, deduplicates by content hash and indexes a file.
// Unreadable and binary files are skipped, not errors.
func (s *IngestionService) IngestFile(ctx context.Context, path string) (*domain.IngestResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.files == nil {
		return nil, errors.New("file reader not configured")
	}

	data, meta, err := s.files.ReadFile(path)
	if err != nil {
		logger.Warn("Skipping %s: %v", path, err)
		return &domain.IngestResult{Status: domain.IngestSkipped, Reason: reasonUnreadable + ": " + err.Error()}, nil
	}

	return s.ingestBytes(ctx, path, data, meta)
}

// IngestUpload indexes file bytes received over the API. The source is
// recorded as "upload:<name>" so it never collides with a local path.
func (s *IngestionService) IngestUpload(ctx context.Context, name string, data []byte) (*domain.IngestResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: upload name is required", domain.ErrInvalidInput)
	}

	now := time.Now()
	meta := &domain.FileMeta{ModTime: now, ChangeTime: now, Size: int64(len(data))}
	return s.ingestBytes(ctx, domain.UploadSourcePrefix+filepath.Base(name), data, meta)
}

// IngestText semantically deduplicates and indexes a text snippet.
func (s *IngestionService) IngestText(ctx context.Context, text, source string) (*domain.IngestResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return &domain.IngestResult{Status: domain.IngestSkipped, Reason: reasonEmpty}, nil
	}
	if source == "" {
		source = domain.DefaultTextSource
	}

	if dup := s.semanticDuplicate(ctx, text, s.settings.TextThreshold); dup != nil {
		logger.Info("Text from %s is a near-duplicate of %s (%.3f)", source, dup.MatchedDocumentID, dup.Similarity)
		return dup, nil
	}

	doc := &domain.Document{
		ID:         uuid.New().String(),
		Source:     source,
		SourceType: domain.SourceTypeText,
		MIMEType:   "text/plain",
		Content:    text,
	}
	return s.create(ctx, doc)
}

// IngestEmail semantically deduplicates and indexes a parsed message.
func (s *IngestionService) IngestEmail(ctx context.Context, msg domain.EmailMessage) (*domain.IngestResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	content := msg.Text()
	if strings.TrimSpace(content) == "" {
		return &domain.IngestResult{Status: domain.IngestSkipped, Reason: reasonEmpty}, nil
	}
	source := msg.Source
	if source == "" {
		source = string(domain.SourceTypeEmail)
	}

	if dup := s.semanticDuplicate(ctx, content, s.settings.EmailThreshold); dup != nil {
		logger.Info("Email %s is a near-duplicate of %s (%.3f)", source, dup.MatchedDocumentID, dup.Similarity)
		return dup, nil
	}

	doc := &domain.Document{
		ID:         uuid.New().String(),
		Source:     source,
		SourceType: domain.SourceTypeEmail,
		MIMEType:   "message/rfc822",
		Content:    content,
	}
	if !msg.Date.IsZero() {
		doc.CreatedAt = msg.Date
	}
	return s.create(ctx, doc)
}

// ready reports whether the service can accept content.
func (s *IngestionService) ready() error {
	if s.cipher != nil && !s.cipher.IsUnlocked() {
		return domain.ErrLocked
	}
	if s.docs == nil || s.pipeline == nil {
		return errors.New("ingestion not configured")
	}
	return nil
}

func (s *IngestionService) ingestBytes(
	ctx context.Context, source string, data []byte, meta *domain.FileMeta,
) (*domain.IngestResult, error) {
	mimeType := detectMIME(data)
	content := data
	if s.extractor != nil {
		text, handled, err := s.extractor.Extract(mimeType, data)
		if handled {
			if err != nil {
				logger.Warn("Skipping %s: %v", source, err)
				return &domain.IngestResult{Status: domain.IngestSkipped, Reason: reasonMalformed + ": " + err.Error()}, nil
			}
			content = []byte(text)
		}
	}

	if !utf8.Valid(content) || bytes.IndexByte(content, 0) >= 0 {
		logger.Warn("Skipping %s: %s", source, reasonBinary)
		return &domain.IngestResult{Status: domain.IngestSkipped, Reason: reasonBinary}, nil
	}
	if len(bytes.TrimSpace(content)) == 0 {
		logger.Debug("Skipping %s: %s", source, reasonEmpty)
		return &domain.IngestResult{Status: domain.IngestSkipped, Reason: reasonEmpty}, nil
	}

	// Content hashes cover the original bytes, not the extracted text.
	hash := s.hash(data)
	existing, err := s.docs.FindByContentHash(ctx, hash)
	switch {
	case err == nil:
		logger.Info("%s already ingested as %s", source, existing.ID)
		return &domain.IngestResult{Status: domain.IngestDuplicate, DocumentID: existing.ID}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("lookup content hash: %w", err)
	}

	doc := &domain.Document{
		ID:          uuid.New().String(),
		Source:      source,
		SourceType:  domain.SourceTypeFile,
		MIMEType:    mimeType,
		ContentHash: hash,
		Content:     string(content),
		File:        meta,
	}

	result, err := s.create(ctx, doc)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// A concurrent ingest of the same bytes won the unique index.
		if existing, findErr := s.docs.FindByContentHash(ctx, hash); findErr == nil {
			return &domain.IngestResult{Status: domain.IngestDuplicate, DocumentID: existing.ID}, nil
		}
	}
	if err != nil {
		return nil, err
	}

	if s.settings.KeepOriginals && s.blobs != nil {
		if err := s.blobs.PutFile(doc.ID, data); err != nil {
			logger.Warn("Storing encrypted original of %s: %v", source, err)
		}
	}

	return result, nil
}

// create commits the document and its chunks, then indexes vectors and tags.
func (s *IngestionService) create(ctx context.Context, doc *domain.Document) (*domain.IngestResult, error) {
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}

	if err := s.docs.SaveDocumentWithChunks(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	result := &domain.IngestResult{
		Status:     domain.IngestCreated,
		DocumentID: doc.ID,
		ChunkCount: len(chunks),
	}

	if err := s.indexChunks(ctx, doc, chunks); err != nil {
		logger.Warn("Vectors for %s left pending: %v", doc.ID, err)
		result.VectorsPending = true
	}

	if s.tagger != nil {
		if _, err := s.tagger.TagDocument(ctx, doc); err != nil {
			logger.Warn("Tagging %s: %v", doc.ID, err)
		}
	}

	logger.Info("Ingested %s from %s (%d chunks)", doc.ID, doc.Source, len(chunks))
	return result, nil
}

// indexChunks embeds chunk texts in one batch and upserts their vectors.
func (s *IngestionService) indexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if s.vectors == nil {
		return domain.ErrVectorIndexUnavailable
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	records := make([]domain.VectorRecord, len(chunks))
	for i, c := range chunks {
		records[i] = vectorRecord(doc, c, embeddings[i])
	}

	if err := s.vectors.UpsertBatch(ctx, records); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// semanticDuplicate returns a duplicate result when the nearest stored
// chunk scores at or above threshold. Failures are logged and treated as
// not duplicate.
func (s *IngestionService) semanticDuplicate(ctx context.Context, text string, threshold float64) *domain.IngestResult {
	if s.embedder == nil || s.vectors == nil || threshold <= 0 {
		return nil
	}

	vec, err := s.embedder.Embed(ctx, leadingText(text, s.settings.DedupSampleChars))
	if err != nil {
		logger.Warn("Duplicate check skipped: %v", err)
		return nil
	}

	hits, err := s.vectors.Search(ctx, vec, 1, nil)
	if err != nil {
		logger.Warn("Duplicate check skipped: %v", err)
		return nil
	}
	if len(hits) == 0 || hits[0].Score < threshold {
		return nil
	}

	return &domain.IngestResult{
		Status:            domain.IngestDuplicate,
		MatchedDocumentID: hits[0].Payload.DocumentID,
		Similarity:        hits[0].Score,
		Reason:            fmt.Sprintf("similarity %.3f >= %.2f", hits[0].Score, threshold),
	}
}

// Reconcile pages through every chunk, restores missing vectors and removes
// vectors whose chunk row is gone.
func (s *IngestionService) Reconcile(ctx context.Context) (*domain.ReconcileReport, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectors == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	logger.Section("Reconcile")
	report := &domain.ReconcileReport{}
	docCache := make(map[string]*domain.Document)

	after := ""
	for {
		page, err := s.docs.ListChunksAfter(ctx, after, reconcilePageSize)
		if err != nil {
			return report, fmt.Errorf("list chunks: %w", err)
		}
		if len(page) == 0 {
			break
		}
		after = page[len(page)-1].ID
		report.ChunksChecked += len(page)

		var missing []domain.Chunk
		for _, c := range page {
			ok, err := s.vectors.Has(ctx, c.ID)
			if err != nil {
				return report, fmt.Errorf("check vector %s: %w", c.ID, err)
			}
			if !ok {
				missing = append(missing, c)
			}
		}
		if len(missing) == 0 {
			continue
		}

		added, err := s.repair(ctx, missing, docCache)
		report.VectorsAdded += added
		if err != nil {
			return report, err
		}
	}

	ids, err := s.vectors.IDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list vectors: %w", err)
	}
	var orphans []string
	for _, id := range ids {
		ok, err := s.docs.ChunkExists(ctx, id)
		if err != nil {
			return report, fmt.Errorf("check chunk %s: %w", id, err)
		}
		if !ok {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) > 0 {
		if err := s.vectors.Delete(ctx, orphans...); err != nil {
			return report, fmt.Errorf("delete orphan vectors: %w", err)
		}
		report.OrphansRemoved = len(orphans)
	}

	logger.Info("Reconcile checked %d chunks: %d vectors added, %d orphans removed",
		report.ChunksChecked, report.VectorsAdded, report.OrphansRemoved)
	return report, nil
}

// repair re-embeds chunks that have no vector.
func (s *IngestionService) repair(
	ctx context.Context, chunks []domain.Chunk, docCache map[string]*domain.Document,
) (int, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed missing chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embed missing chunks: got %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	records := make([]domain.VectorRecord, 0, len(chunks))
	for i, c := range chunks {
		doc, ok := docCache[c.DocumentID]
		if !ok {
			doc, err = s.docs.GetDocument(ctx, c.DocumentID)
			if err != nil {
				logger.Warn("Chunk %s has no readable document: %v", c.ID, err)
				doc = &domain.Document{ID: c.DocumentID}
			}
			docCache[c.DocumentID] = doc
		}
		records = append(records, vectorRecord(doc, c, embeddings[i]))
	}

	if err := s.vectors.UpsertBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("upsert repaired vectors: %w", err)
	}
	return len(records), nil
}

func (s *IngestionService) hash(data []byte) string {
	if s.blobs != nil {
		return s.blobs.Hash(data)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func vectorRecord(doc *domain.Document, c domain.Chunk, vec []float32) domain.VectorRecord {
	return domain.VectorRecord{
		ID:     c.ID,
		Vector: vec,
		Payload: domain.VectorPayload{
			DocumentID: c.DocumentID,
			Source:     doc.Source,
			SourceType: doc.SourceType,
			Preview:    domain.Preview(c.Content),
		},
	}
}

// detectMIME sniffs file bytes. Text formats without magic bytes report
// text/plain with a charset parameter.
func detectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}
