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

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, source, source_type, mime_type, content_hash, content, cluster_id,
	file_mtime, file_ctime, file_size, file_owner, created_at, updated_at`

// execer is the subset of *sql.DB and *sql.Tx the insert helpers need.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// SaveDocument inserts a new document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	return insertDocument(ctx, s.store.db, doc)
}

// SaveChunks stores chunks for a document in one transaction.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insertChunks(ctx, tx, chunks)
	})
}

// SaveDocumentWithChunks inserts a document and its chunks atomically, so a
// failed chunk write never leaves the content hash claimed.
func (s *documentStore) SaveDocumentWithChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertDocument(ctx, tx, doc); err != nil {
			return err
		}
		return insertChunks(ctx, tx, chunks)
	})
}

func (s *documentStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertDocument(ctx context.Context, ex execer, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	var mtime, ctime, owner any
	var size any
	if doc.File != nil {
		mtime = formatNullableTime(doc.File.ModTime)
		ctime = formatNullableTime(doc.File.ChangeTime)
		size = doc.File.Size
		owner = nullString(doc.File.Owner)
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Source, string(doc.SourceType), doc.MIMEType, nullString(doc.ContentHash),
		doc.Content, doc.ClusterID, mtime, ctime, size, owner, doc.CreatedAt, doc.UpdatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("saving document: %w", domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

func insertChunks(ctx context.Context, ex execer, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	stmt, err := ex.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, content, start_offset, end_offset)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			position = excluded.position,
			content = excluded.content,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Position,
			chunk.Content, chunk.Start, chunk.End); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// FindByContentHash returns the document with an exact content hash.
func (s *documentStore) FindByContentHash(ctx context.Context, hash string) (*domain.Document, error) {
	if hash == "" {
		return nil, domain.ErrNotFound
	}
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE content_hash = ?
	`, hash)

	return scanDocument(row)
}

// ListDocuments returns documents newest first.
func (s *documentStore) ListDocuments(ctx context.Context, limit, offset int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// SampleDocuments returns up to limit documents, oldest first.
func (s *documentStore) SampleDocuments(ctx context.Context, limit int) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		ORDER BY created_at ASC, rowid ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying document sample: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// DocumentsByIDs loads documents by ID. Missing IDs are skipped.
func (s *documentStore) DocumentsByIDs(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE id IN (`+placeholders(len(ids))+`)
		ORDER BY created_at DESC, rowid DESC
	`, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("querying documents by id: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// GetChunks retrieves all chunks for a document.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, position, content, start_offset, end_offset
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, position, content, start_offset, end_offset
		FROM chunks WHERE id = ?
	`, id)

	chunk, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return chunk, err
}

// ListChunksAfter pages through chunks ordered by ID.
func (s *documentStore) ListChunksAfter(ctx context.Context, afterID string, limit int) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, position, content, start_offset, end_offset
		FROM chunks WHERE id > ?
		ORDER BY id
		LIMIT ?
	`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chunk page: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// ChunkExists reports whether a chunk row exists.
func (s *documentStore) ChunkExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.store.db.QueryRowContext(ctx, "SELECT 1 FROM chunks WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking chunk: %w", err)
	}
	return true, nil
}

// Counts returns the corpus counts.
func (s *documentStore) Counts(ctx context.Context) (domain.CorpusSnapshot, error) {
	var snap domain.CorpusSnapshot
	err := s.store.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM chunks),
			(SELECT COUNT(*) FROM tags),
			(SELECT COUNT(*) FROM clusters)
	`).Scan(&snap.Documents, &snap.Chunks, &snap.Tags, &snap.Clusters)
	if err != nil {
		return domain.CorpusSnapshot{}, fmt.Errorf("counting corpus: %w", err)
	}
	return snap, nil
}

// scanDocument scans a single document row.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var sourceType string
	var hash, mtime, ctime, owner sql.NullString
	var clusterID, size sql.NullInt64

	if err := row.Scan(&doc.ID, &doc.Source, &sourceType, &doc.MIMEType, &hash, &doc.Content,
		&clusterID, &mtime, &ctime, &size, &owner, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.SourceType = domain.SourceType(sourceType)
	doc.ContentHash = hash.String
	if clusterID.Valid {
		id := int(clusterID.Int64)
		doc.ClusterID = &id
	}
	if size.Valid || mtime.Valid {
		doc.File = &domain.FileMeta{
			ModTime:    parseNullableTime(mtime),
			ChangeTime: parseNullableTime(ctime),
			Size:       size.Int64,
			Owner:      owner.String,
		}
	}

	return &doc, nil
}

// scanDocuments scans every row of a document query.
func scanDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// scanChunk scans one chunk. sql.ErrNoRows is returned unwrapped.
func scanChunk(row rowScanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position,
		&chunk.Content, &chunk.Start, &chunk.End); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return &chunk, nil
}

// scanChunks scans every row of a chunk query.
func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}
