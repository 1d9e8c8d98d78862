package domain

import "time"

// SearchOptions configures a semantic search.
type SearchOptions struct {
	// Limit is the maximum number of results (default 10).
	Limit int

	// Tag restricts results to documents carrying this keyword.
	Tag string

	// SourceType restricts results to one entry point.
	SourceType SourceType
}

// DefaultSearchLimit is used when SearchOptions.Limit is zero.
const DefaultSearchLimit = 10

// SearchResult is one ranked chunk with its parent document.
type SearchResult struct {
	Document Document
	Chunk    Chunk
	Score    float64
	Preview  string
}

// Stats summarises the corpus.
type Stats struct {
	Documents  int
	Chunks     int
	Tags       int
	Clusters   int
	Vectors    int
	Dimensions int
	Model      string
}

// Summary describes one cluster or tag.
type Summary struct {
	Name          string
	Kind          string
	DocumentCount int
	TopKeywords   []TagCount
	Recent        []Document
	Text          string
	GeneratedAt   time.Time
}

// Summary kinds.
const (
	SummaryKindCluster = "cluster"
	SummaryKindTag     = "tag"
)
