package domain

import "time"

// SourceType identifies how a document entered the system.
type SourceType string

// Known source types.
const (
	SourceTypeFile  SourceType = "file"
	SourceTypeEmail SourceType = "email"
	SourceTypeText  SourceType = "text"
)

// IsValid returns true if the source type is recognised.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypeFile, SourceTypeEmail, SourceTypeText:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// DefaultTextSource is the source recorded for text without an explicit origin.
const DefaultTextSource = "stdin"

// UploadSourcePrefix marks documents received as HTTP uploads.
const UploadSourcePrefix = "upload:"

// Document is one ingested item. Documents are immutable after creation
// except for ClusterID, which the organizer rewrites each cycle.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Source is the origin: a file path, imap:// URI, or "stdin".
	Source string

	// SourceType records which entry point created the document.
	SourceType SourceType

	// MIMEType is the detected content type.
	MIMEType string

	// ContentHash is the SHA-256 hex digest of file bytes.
	// Empty for text and email documents.
	ContentHash string

	// Content is the raw text before chunking.
	Content string

	// ClusterID is the current semantic cluster, nil when unassigned or noise.
	ClusterID *int

	// File holds filesystem metadata for file documents.
	File *FileMeta

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document row last changed.
	UpdatedAt time.Time
}

// FileMeta captures filesystem attributes at ingestion time.
type FileMeta struct {
	ModTime    time.Time
	ChangeTime time.Time
	Size       int64
	Owner      string
}

// Chunk is a contiguous slice of a document's text.
// Its vector lives in the vector store under the same ID.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Start and End are character offsets into the document content.
	Start int
	End   int
}
