package mcp

import (
	"context"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	stats    *domain.Stats
	tags     []domain.TagCount
	recent   []domain.Document
	document *domain.Document
	err      error

	lastQuery string
	lastOpts  domain.SearchOptions
	lastLimit int
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) Stats(context.Context) (*domain.Stats, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stats == nil {
		return &domain.Stats{}, nil
	}
	return m.stats, nil
}

func (m *mockSearchService) Tags(_ context.Context, limit int) ([]domain.TagCount, error) {
	m.lastLimit = limit
	return m.tags, m.err
}

func (m *mockSearchService) Recent(_ context.Context, limit int) ([]domain.Document, error) {
	m.lastLimit = limit
	return m.recent, m.err
}

func (m *mockSearchService) Summary(context.Context, string) (*domain.Summary, error) {
	return nil, domain.ErrNotFound
}

func (m *mockSearchService) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.document == nil || m.document.ID != id {
		return nil, domain.ErrNotFound
	}
	return m.document, nil
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	result *domain.IngestResult
	err    error

	text   string
	source string
}

func (m *mockIngestionService) IngestFile(context.Context, string) (*domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestionService) IngestUpload(context.Context, string, []byte) (*domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestionService) IngestText(_ context.Context, text, source string) (*domain.IngestResult, error) {
	m.text = text
	m.source = source
	return m.result, m.err
}

func (m *mockIngestionService) IngestEmail(context.Context, domain.EmailMessage) (*domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestionService) Reconcile(context.Context) (*domain.ReconcileReport, error) {
	return &domain.ReconcileReport{}, m.err
}

var (
	_ driving.SearchService    = (*mockSearchService)(nil)
	_ driving.IngestionService = (*mockIngestionService)(nil)
)
