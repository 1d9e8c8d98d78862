package driven

import "github.com/custodia-labs/promethean-light/internal/core/domain"

// FileReader loads a file and its filesystem metadata.
type FileReader interface {
	ReadFile(path string) ([]byte, *domain.FileMeta, error)
}

// TextExtractor converts structured formats such as HTML or DOCX to plain
// text before chunking.
type TextExtractor interface {
	// Extract reports handled=false when no extractor supports mimeType.
	Extract(mimeType string, data []byte) (text string, handled bool, err error)
}
