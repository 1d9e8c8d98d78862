package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
	"github.com/custodia-labs/promethean-light/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

const (
	summaryKeywords = 5
	summaryRecent   = 5
	excerptChars    = 300
)

// fallbackClusterPrompt is used when no prompt store is configured.
const fallbackClusterPrompt = "Describe the group %q in two sentences based on these excerpts:\n%s"

// SearchService provides semantic search and corpus views.
type SearchService struct {
	docs     driven.DocumentStore
	tags     driven.TagStore
	clusters driven.ClusterStore
	vectors  driven.VectorStore
	embedder driven.EmbeddingService
	llm      driven.LLMService
	prompts  driven.PromptStore
}

// NewSearchService creates a new search service.
// The llm parameter is optional (can be nil); summaries are then extractive.
func NewSearchService(
	docs driven.DocumentStore,
	tags driven.TagStore,
	clusters driven.ClusterStore,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
) *SearchService {
	return &SearchService{
		docs:     docs,
		tags:     tags,
		clusters: clusters,
		vectors:  vectors,
		embedder: embedder,
		llm:      llm,
	}
}

// SetPromptStore sets the template source for generated summaries.
func (s *SearchService) SetPromptStore(p driven.PromptStore) {
	s.prompts = p
}

// Search embeds the query and returns the nearest chunks with their documents.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectors == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	filter := &domain.VectorFilter{SourceType: opts.SourceType}
	if opts.Tag != "" {
		ids, err := s.tags.DocumentIDsByKeyword(ctx, strings.ToLower(opts.Tag))
		if err != nil {
			return nil, fmt.Errorf("resolve tag filter: %w", err)
		}
		if len(ids) == 0 {
			logger.Debug("No documents carry tag %q", opts.Tag)
			return []domain.SearchResult{}, nil
		}
		filter.DocumentIDs = ids
	}
	logger.Debug("Limit: %d, tag: %q, source type: %q", limit, opts.Tag, opts.SourceType)

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectors.Search(ctx, vec, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Raw results: %d chunks", len(hits))

	results, err := s.hydrate(ctx, hits)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}

	logger.Info("Final results: %d", len(results))
	return results, nil
}

// hydrate loads chunks and documents for vector hits. Hits whose chunk or
// document row is gone are dropped; Reconcile removes them later.
func (s *SearchService) hydrate(ctx context.Context, hits []domain.VectorHit) ([]domain.SearchResult, error) {
	if len(hits) == 0 {
		return []domain.SearchResult{}, nil
	}

	docIDs := make([]string, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		if !seen[h.Payload.DocumentID] {
			seen[h.Payload.DocumentID] = true
			docIDs = append(docIDs, h.Payload.DocumentID)
		}
	}

	docs, err := s.docs.DocumentsByIDs(ctx, docIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		doc, ok := byID[h.Payload.DocumentID]
		if !ok {
			logger.Debug("Dropping hit %s: document %s missing", h.ID, h.Payload.DocumentID)
			continue
		}
		chunk, err := s.docs.GetChunk(ctx, h.ID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Dropping hit %s: chunk missing", h.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, domain.SearchResult{
			Document: doc,
			Chunk:    *chunk,
			Score:    h.Score,
			Preview:  h.Payload.Preview,
		})
	}
	return results, nil
}

// Stats summarises the corpus.
func (s *SearchService) Stats(ctx context.Context) (*domain.Stats, error) {
	counts, err := s.docs.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count corpus: %w", err)
	}

	stats := &domain.Stats{
		Documents: counts.Documents,
		Chunks:    counts.Chunks,
		Tags:      counts.Tags,
		Clusters:  counts.Clusters,
	}
	if s.vectors != nil {
		n, err := s.vectors.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count vectors: %w", err)
		}
		stats.Vectors = n
		stats.Dimensions = s.vectors.Dimensions()
	}
	if s.embedder != nil {
		stats.Model = s.embedder.ModelName()
	}
	return stats, nil
}

// Tags lists keywords ranked by document count.
func (s *SearchService) Tags(ctx context.Context, limit int) ([]domain.TagCount, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.tags.TopKeywords(ctx, limit)
}

// Recent lists the latest documents.
func (s *SearchService) Recent(ctx context.Context, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	return s.docs.ListDocuments(ctx, limit, 0)
}

// GetDocument returns one document.
func (s *SearchService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.docs.GetDocument(ctx, id)
}

// Summary describes a cluster label, or failing that a tag keyword.
func (s *SearchService) Summary(ctx context.Context, name string) (*domain.Summary, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	summary := &domain.Summary{Name: name}
	var ids []string

	cluster, err := s.clusters.FindByLabel(ctx, name)
	switch {
	case err == nil:
		summary.Kind = domain.SummaryKindCluster
		ids, err = s.clusters.DocumentIDsByCluster(ctx, cluster.ID)
		if err != nil {
			return nil, fmt.Errorf("cluster members: %w", err)
		}
	case errors.Is(err, domain.ErrNotFound):
		summary.Kind = domain.SummaryKindTag
		ids, err = s.tags.DocumentIDsByKeyword(ctx, strings.ToLower(name))
		if err != nil {
			return nil, fmt.Errorf("tag members: %w", err)
		}
	default:
		return nil, fmt.Errorf("find cluster: %w", err)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no cluster or tag named %q", domain.ErrNotFound, name)
	}
	summary.DocumentCount = len(ids)

	summary.TopKeywords, err = s.tags.TopKeywordsFor(ctx, ids, summaryKeywords)
	if err != nil {
		return nil, fmt.Errorf("top keywords: %w", err)
	}

	docs, err := s.docs.DocumentsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	if len(docs) > summaryRecent {
		docs = docs[:summaryRecent]
	}
	summary.Recent = docs

	summary.Text = s.describe(ctx, summary)
	summary.GeneratedAt = time.Now()
	return summary, nil
}

// describe asks the LLM for a description and falls back to an extractive one.
func (s *SearchService) describe(ctx context.Context, summary *domain.Summary) string {
	extractive := extractiveSummary(summary)
	if s.llm == nil {
		return extractive
	}

	template := fallbackClusterPrompt
	if s.prompts != nil {
		if t, err := s.prompts.Load(driven.PromptClusterSummary); err == nil {
			template = t
		}
	}

	var excerpts strings.Builder
	for _, d := range summary.Recent {
		fmt.Fprintf(&excerpts, "[%s]\n%s\n\n", d.Source, leadingText(d.Content, excerptChars))
	}

	text, err := s.llm.Generate(ctx, fmt.Sprintf(template, summary.Name, excerpts.String()), driven.GenerateOptions{
		MaxTokens:   200,
		Temperature: 0.2,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		logger.Warn("Generated summary for %q unavailable: %v", summary.Name, err)
		return extractive
	}
	return strings.TrimSpace(text)
}

func extractiveSummary(summary *domain.Summary) string {
	words := make([]string, len(summary.TopKeywords))
	for i, k := range summary.TopKeywords {
		words[i] = k.Keyword
	}
	kind := "Cluster"
	if summary.Kind == domain.SummaryKindTag {
		kind = "Tag"
	}
	text := fmt.Sprintf("%s %q holds %d documents.", kind, summary.Name, summary.DocumentCount)
	if len(words) > 0 {
		text += " Top keywords: " + strings.Join(words, ", ") + "."
	}
	return text
}
