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

// ==================== Tag Store ====================

// tagStore implements driven.TagStore.
type tagStore struct {
	store *Store
}

var _ driven.TagStore = (*tagStore)(nil)

// AddTags appends tags in one transaction.
func (s *tagStore) AddTags(ctx context.Context, tags []domain.Tag) error {
	if len(tags) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tags (document_id, keyword, confidence, created_at) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, tag := range tags {
		created := tag.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := stmt.ExecContext(ctx, tag.DocumentID, tag.Keyword, tag.Confidence, created); err != nil {
			return fmt.Errorf("saving tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListByDocument returns the tags of a document by confidence.
func (s *tagStore) ListByDocument(ctx context.Context, documentID string) ([]domain.Tag, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, keyword, confidence, created_at
		FROM tags WHERE document_id = ?
		ORDER BY confidence DESC, id ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag //nolint:prealloc // size unknown from query
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.DocumentID, &tag.Keyword, &tag.Confidence, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}

	return tags, nil
}

// TopKeywords ranks keywords by distinct document count.
func (s *tagStore) TopKeywords(ctx context.Context, limit int) ([]domain.TagCount, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT keyword, COUNT(DISTINCT document_id) AS n
		FROM tags
		GROUP BY keyword
		ORDER BY n DESC, keyword ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top keywords: %w", err)
	}
	defer rows.Close()

	return scanTagCounts(rows)
}

// TopKeywordsFor ranks keywords across a set of documents.
func (s *tagStore) TopKeywordsFor(ctx context.Context, documentIDs []string, limit int) ([]domain.TagCount, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	args := append(stringArgs(documentIDs), limit)
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT keyword, COUNT(DISTINCT document_id) AS n
		FROM tags
		WHERE document_id IN (`+placeholders(len(documentIDs))+`)
		GROUP BY keyword
		ORDER BY n DESC, keyword ASC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying keywords for documents: %w", err)
	}
	defer rows.Close()

	return scanTagCounts(rows)
}

// DocumentIDsByKeyword returns documents carrying a keyword.
func (s *tagStore) DocumentIDsByKeyword(ctx context.Context, keyword string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT DISTINCT document_id FROM tags WHERE keyword = ? ORDER BY document_id
	`, keyword)
	if err != nil {
		return nil, fmt.Errorf("querying documents by keyword: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// ==================== Cluster Store ====================

// clusterStore implements driven.ClusterStore.
type clusterStore struct {
	store *Store
}

var _ driven.ClusterStore = (*clusterStore)(nil)

// ReplaceClusters rewrites the cluster table and every assignment atomically.
func (s *clusterStore) ReplaceClusters(ctx context.Context, clusters []domain.Cluster, assignments map[string]int) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "UPDATE documents SET cluster_id = NULL WHERE cluster_id IS NOT NULL"); err != nil {
		return fmt.Errorf("clearing assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM clusters"); err != nil {
		return fmt.Errorf("deleting clusters: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO clusters (id, label, document_count, created_at) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing cluster insert: %w", err)
	}
	defer insert.Close()

	now := time.Now().UTC()
	for _, c := range clusters {
		created := c.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := insert.ExecContext(ctx, c.ID, c.Label, c.DocumentCount, created); err != nil {
			return fmt.Errorf("saving cluster: %w", err)
		}
	}

	assign, err := tx.PrepareContext(ctx, "UPDATE documents SET cluster_id = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing assignment: %w", err)
	}
	defer assign.Close()

	for docID, clusterID := range assignments {
		if _, err := assign.ExecContext(ctx, clusterID, docID); err != nil {
			return fmt.Errorf("assigning document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListClusters returns clusters largest first.
func (s *clusterStore) ListClusters(ctx context.Context) ([]domain.Cluster, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, label, document_count, created_at
		FROM clusters
		ORDER BY document_count DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying clusters: %w", err)
	}
	defer rows.Close()

	var clusters []domain.Cluster //nolint:prealloc // size unknown from query
	for rows.Next() {
		c, err := scanCluster(rows)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clusters: %w", err)
	}

	return clusters, nil
}

// FindByLabel returns the cluster with a label.
func (s *clusterStore) FindByLabel(ctx context.Context, label string) (*domain.Cluster, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, label, document_count, created_at
		FROM clusters WHERE label = ?
		ORDER BY document_count DESC
		LIMIT 1
	`, label)

	return scanCluster(row)
}

// DocumentIDsByCluster returns the members of a cluster.
func (s *clusterStore) DocumentIDsByCluster(ctx context.Context, clusterID int) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id FROM documents WHERE cluster_id = ? ORDER BY created_at DESC
	`, clusterID)
	if err != nil {
		return nil, fmt.Errorf("querying cluster members: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

func scanCluster(row rowScanner) (*domain.Cluster, error) {
	var c domain.Cluster
	if err := row.Scan(&c.ID, &c.Label, &c.DocumentCount, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cluster: %w", err)
	}
	return &c, nil
}

func scanTagCounts(rows *sql.Rows) ([]domain.TagCount, error) {
	var counts []domain.TagCount //nolint:prealloc // size unknown from query
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.Keyword, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning keyword count: %w", err)
		}
		counts = append(counts, tc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keyword counts: %w", err)
	}

	return counts, nil
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}

	return ids, nil
}
