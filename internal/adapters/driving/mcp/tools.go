package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// mcpSource is recorded as the origin of notes added through MCP.
const mcpSource = "mcp"

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find documents"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Tag   string `json:"tag,omitempty" jsonschema:"only return documents carrying this tag"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	SourceType string  `json:"source_type"`
	Score      float64 `json:"score"`
	Content    string  `json:"content,omitempty"`
}

// StatsInput is the empty input of the stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	Documents  int    `json:"documents"`
	Chunks     int    `json:"chunks"`
	Tags       int    `json:"tags"`
	Clusters   int    `json:"clusters"`
	Vectors    int    `json:"vectors"`
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model"`
}

// TagsInput is the input schema for the tags tool.
type TagsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of tags (default 50)"`
}

// TagsOutput is the output schema for the tags tool.
type TagsOutput struct {
	Tags []TagOutput `json:"tags"`
}

// TagOutput is one keyword with its document count.
type TagOutput struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// AddTextInput is the input schema for the add_text tool.
type AddTextInput struct {
	Text   string `json:"text" jsonschema:"the note to store"`
	Source string `json:"source,omitempty" jsonschema:"where the note came from"`
}

// AddTextOutput reports what ingestion did.
type AddTextOutput struct {
	Status     string  `json:"status"`
	DocumentID string  `json:"document_id,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

const defaultTagLimit = 50

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Semantic search across the knowledge base",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Document, chunk, tag and cluster counts",
	}, s.handleStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "tags",
		Description: "Keywords ranked by how many documents carry them",
	}, s.handleTags)

	if s.ports.Ingestion != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "add_text",
			Description: "Store a note in the knowledge base",
		}, s.handleAddText)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	opts := domain.SearchOptions{Limit: limit, Tag: input.Tag}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			DocumentID: results[i].Document.ID,
			Source:     results[i].Document.Source,
			SourceType: string(results[i].Document.SourceType),
			Score:      results[i].Score,
			Content:    results[i].Chunk.Content,
		}
	}
	return nil, output, nil
}

func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Search.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, StatsOutput{
		Documents:  stats.Documents,
		Chunks:     stats.Chunks,
		Tags:       stats.Tags,
		Clusters:   stats.Clusters,
		Vectors:    stats.Vectors,
		Dimensions: stats.Dimensions,
		Model:      stats.Model,
	}, nil
}

func (s *Server) handleTags(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TagsInput,
) (*mcp.CallToolResult, TagsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultTagLimit
	}
	tags, err := s.ports.Search.Tags(ctx, limit)
	if err != nil {
		return nil, TagsOutput{}, err
	}
	output := TagsOutput{Tags: make([]TagOutput, len(tags))}
	for i, t := range tags {
		output.Tags[i] = TagOutput{Keyword: t.Keyword, Count: t.Count}
	}
	return nil, output, nil
}

func (s *Server) handleAddText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddTextInput,
) (*mcp.CallToolResult, AddTextOutput, error) {
	if s.ports.Ingestion == nil {
		return nil, AddTextOutput{}, ErrIngestionDisabled
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, AddTextOutput{}, fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}
	source := input.Source
	if source == "" {
		source = mcpSource
	}

	res, err := s.ports.Ingestion.IngestText(ctx, input.Text, source)
	if err != nil {
		return nil, AddTextOutput{}, err
	}
	docID := res.DocumentID
	if docID == "" {
		docID = res.MatchedDocumentID
	}
	return nil, AddTextOutput{
		Status:     string(res.Status),
		DocumentID: docID,
		Similarity: res.Similarity,
		Reason:     res.Reason,
	}, nil
}
