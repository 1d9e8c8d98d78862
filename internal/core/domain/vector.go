package domain

// PreviewLength is the maximum characters stored in a vector payload preview.
const PreviewLength = 200

// VectorPayload is the metadata stored alongside each chunk vector.
type VectorPayload struct {
	DocumentID string     `json:"document_id"`
	Source     string     `json:"source"`
	SourceType SourceType `json:"source_type"`
	Preview    string     `json:"preview"`
}

// VectorRecord is an entry in the vector store keyed by chunk ID.
type VectorRecord struct {
	ID      string
	Vector  []float32
	Payload VectorPayload
}

// VectorHit is a similarity search result.
type VectorHit struct {
	ID      string
	Score   float64
	Payload VectorPayload
}

// VectorFilter restricts a vector search by payload fields.
// Empty fields match everything.
type VectorFilter struct {
	DocumentIDs []string
	Source      string
	SourceType  SourceType
}

// IsEmpty reports whether the filter matches all entries.
func (f *VectorFilter) IsEmpty() bool {
	return f == nil || (len(f.DocumentIDs) == 0 && f.Source == "" && f.SourceType == "")
}

// Preview truncates text to PreviewLength characters.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength])
}
