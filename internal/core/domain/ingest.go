package domain

// IngestStatus is the outcome of an ingestion call.
type IngestStatus string

// Ingestion outcomes.
const (
	IngestCreated   IngestStatus = "created"
	IngestDuplicate IngestStatus = "duplicate"
	IngestSkipped   IngestStatus = "skipped"
)

// IngestResult describes what an ingestion entry point did.
type IngestResult struct {
	// Status is created, duplicate or skipped.
	Status IngestStatus

	// DocumentID is the new document, or the existing one for exact duplicates.
	DocumentID string

	// MatchedDocumentID is the nearest document for semantic duplicates.
	MatchedDocumentID string

	// Similarity is the score of the semantic match, if any.
	Similarity float64

	// Reason explains a skip.
	Reason string

	// ChunkCount is how many chunks were committed.
	ChunkCount int

	// VectorsPending is true when chunks were stored but vectors were not.
	// The reconcile sweep repairs these.
	VectorsPending bool
}

// ReconcileReport summarises one reconcile sweep.
type ReconcileReport struct {
	ChunksChecked  int
	VectorsAdded   int
	OrphansRemoved int
}
