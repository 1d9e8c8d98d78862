package domain

import "time"

// Tag is a keyword attached to a document. Tags are append-only.
type Tag struct {
	DocumentID string
	Keyword    string
	Confidence float64
	CreatedAt  time.Time
}

// TagSuggestion is a keyword proposed by the auto-tagger.
type TagSuggestion struct {
	Keyword    string
	Confidence float64
}

// TagCount aggregates how many documents carry a keyword.
type TagCount struct {
	Keyword string
	Count   int
}

// Cluster is a semantic group discovered by the clustering cycle.
// The cluster table is replaced wholesale on every successful run.
type Cluster struct {
	ID            int
	Label         string
	DocumentCount int
	CreatedAt     time.Time
}

// NoiseLabel marks a point that belongs to no cluster.
const NoiseLabel = -1

// CorpusSnapshot records the corpus counts observed at the end of the
// previous clustering cycle. Equal counts mean nothing changed.
type CorpusSnapshot struct {
	Documents int
	Chunks    int
	Tags      int
	Clusters  int
}

// Equal reports whether both snapshots hold the same counts.
func (s CorpusSnapshot) Equal(other CorpusSnapshot) bool {
	return s == other
}

// IsZero reports whether no cycle has recorded counts yet.
func (s CorpusSnapshot) IsZero() bool {
	return s == CorpusSnapshot{}
}

// SkipReason explains why a clustering cycle did no work.
type SkipReason string

// Reasons a clustering cycle is skipped.
const (
	SkipNone           SkipReason = ""
	SkipUnchanged      SkipReason = "unchanged"
	SkipTooFewDocs     SkipReason = "too few documents"
	SkipNoReducer      SkipReason = "no reducer available"
	SkipNoEmbeddings   SkipReason = "no embeddings"
	SkipCycleAbandoned SkipReason = "cycle abandoned"
)

// ClusteringParams tunes one clustering cycle.
type ClusteringParams struct {
	// MinClusterSize is the smallest group HDBSCAN will report.
	MinClusterSize int

	// MinSamples sets core-distance neighbourhood size. Zero means MinClusterSize.
	MinSamples int

	// SampleSize caps how many documents are embedded per cycle.
	SampleSize int

	// TextChars is how many leading characters of each document are embedded.
	TextChars int

	// Components is the maximum reduced dimensionality.
	Components int

	// LabelWords is how many top words form a cluster label.
	LabelWords int
}

// DefaultClusteringParams returns the standard clustering parameters.
func DefaultClusteringParams() ClusteringParams {
	return ClusteringParams{
		MinClusterSize: 5,
		SampleSize:     5000,
		TextChars:      1000,
		Components:     10,
		LabelWords:     3,
	}
}

// ClusteringOutcome is the result of one clustering cycle.
// Snapshot must be passed to the next cycle.
type ClusteringOutcome struct {
	Snapshot   CorpusSnapshot
	Ran        bool
	SkipReason SkipReason
	Clusters   []Cluster
	Assigned   int
	Noise      int
}
