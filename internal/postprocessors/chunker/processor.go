// Package chunker splits document text into paragraph-preserving chunks.
package chunker

import (
	"context"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// DefaultChunkSize is the default character budget per chunk.
const DefaultChunkSize = 1000

// Processor packs paragraphs greedily into chunks no longer than the
// budget. A paragraph longer than the budget becomes a chunk on its own and
// is never split. Offsets count runes.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk budget in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "paragraph"
}

// ChunkSize returns the configured budget.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runes := []rune(doc.Content)
	paras := paragraphs(runes)
	if len(paras) == 0 {
		return nil, nil
	}

	var chunks []domain.Chunk
	emit := func(start, end int) {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    string(runes[start:end]),
			Position:   len(chunks),
			Start:      start,
			End:        end,
		})
	}

	start, end := paras[0].start, paras[0].end
	for _, para := range paras[1:] {
		if para.end-start <= p.chunkSize {
			end = para.end
			continue
		}
		emit(start, end)
		start, end = para.start, para.end
	}
	emit(start, end)

	return chunks, nil
}

type span struct{ start, end int }

// paragraphs returns the trimmed spans of text separated by blank lines.
func paragraphs(runes []rune) []span {
	var spans []span
	start := -1
	lastText := 0
	newlines := 0

	for i, r := range runes {
		switch {
		case r == '\n':
			newlines++
			if newlines >= 2 && start >= 0 {
				spans = append(spans, span{start, lastText})
				start = -1
			}
		case unicode.IsSpace(r):
		default:
			if start < 0 {
				start = i
			}
			lastText = i + 1
			newlines = 0
		}
	}
	if start >= 0 {
		spans = append(spans, span{start, lastText})
	}
	return spans
}
