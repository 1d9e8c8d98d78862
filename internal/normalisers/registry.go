package normalisers

import (
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
	"github.com/custodia-labs/promethean-light/internal/normalisers/docx"
	"github.com/custodia-labs/promethean-light/internal/normalisers/eml"
	"github.com/custodia-labs/promethean-light/internal/normalisers/html"
)

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// ExtractFunc converts raw bytes of one format to text.
type ExtractFunc func(data []byte) (string, error)

// Registry maps media types to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]ExtractFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]ExtractFunc)}
}

// Default returns a registry with the built-in HTML, DOCX and EML extractors.
func Default() *Registry {
	r := NewRegistry()
	r.Register(html.MIMEType, html.Extract)
	r.Register(docx.MIMEType, docx.Extract)
	r.Register(eml.MIMEType, eml.Extract)
	return r
}

// Register adds or replaces the extractor for mimeType.
func (r *Registry) Register(mimeType string, fn ExtractFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[baseType(mimeType)] = fn
}

// Extract dispatches on the media type, ignoring parameters such as charset.
func (r *Registry) Extract(mimeType string, data []byte) (string, bool, error) {
	r.mu.RLock()
	fn, ok := r.extractors[baseType(mimeType)]
	r.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	text, err := fn(data)
	return text, true, err
}

// MIMETypes lists the registered media types in sorted order.
func (r *Registry) MIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.extractors))
	for t := range r.extractors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func baseType(mimeType string) string {
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
