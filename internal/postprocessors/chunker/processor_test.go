package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

func process(t *testing.T, p *Processor, content string) []domain.Chunk {
	t.Helper()
	chunks, err := p.Process(context.Background(), &domain.Document{ID: "doc-1", Content: content}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return chunks
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		if New().ChunkSize() != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, New().ChunkSize())
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		if got := New(WithChunkSize(500)).ChunkSize(); got != 500 {
			t.Errorf("expected chunkSize 500, got %d", got)
		}
	})

	t.Run("non-positive ignored", func(t *testing.T) {
		if got := New(WithChunkSize(0)).ChunkSize(); got != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", got)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "paragraph" {
		t.Errorf("expected name 'paragraph', got '%s'", New().Name())
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	for _, content := range []string{"", "   \n\n\t  "} {
		if chunks := process(t, New(), content); len(chunks) != 0 {
			t.Errorf("expected 0 chunks for %q, got %d", content, len(chunks))
		}
	}
}

func TestProcessor_Process_SingleParagraph(t *testing.T) {
	chunks := process(t, New(), "  hello world  ")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Content != "hello world" || c.Start != 2 || c.End != 13 {
		t.Errorf("unexpected chunk %+v", c)
	}
	if c.DocumentID != "doc-1" || c.ID == "" || c.Position != 0 {
		t.Errorf("unexpected identity fields %+v", c)
	}
}

func TestProcessor_Process_PacksParagraphs(t *testing.T) {
	// Three 10-char paragraphs separated by blank lines; budget fits two.
	text := "aaaaaaaaaa\n\nbbbbbbbbbb\n\ncccccccccc"
	chunks := process(t, New(WithChunkSize(22)), text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "aaaaaaaaaa\n\nbbbbbbbbbb" {
		t.Errorf("unexpected first chunk %q", chunks[0].Content)
	}
	if chunks[1].Content != "cccccccccc" || chunks[1].Position != 1 {
		t.Errorf("unexpected second chunk %+v", chunks[1])
	}
}

func TestProcessor_Process_OversizedParagraphKeptWhole(t *testing.T) {
	long := strings.Repeat("x", 50)
	text := "short\n\n" + long + "\n\ntail"
	chunks := process(t, New(WithChunkSize(10)), text)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[1].Content != long {
		t.Errorf("oversized paragraph should be one chunk, got %q", chunks[1].Content)
	}
}

func TestProcessor_Process_SingleNewlineDoesNotSplit(t *testing.T) {
	chunks := process(t, New(WithChunkSize(5)), "line one\nline two")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestProcessor_Process_OffsetsIndexRunes(t *testing.T) {
	text := "héllo wörld\n\n日本語のテキスト"
	chunks := process(t, New(WithChunkSize(12)), text)
	runes := []rune(text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if string(runes[c.Start:c.End]) != c.Content {
			t.Errorf("offsets [%d,%d) do not match content %q", c.Start, c.End, c.Content)
		}
	}
}

func TestProcessor_Process_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Process(ctx, &domain.Document{Content: "x"}, nil); err == nil {
		t.Error("expected context error")
	}
}
