package postprocessors

import (
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
	"github.com/custodia-labs/promethean-light/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("paragraph", buildParagraphChunker)
}

// DefaultPipeline returns the ingestion pipeline for a chunk budget.
func DefaultPipeline(chunkSize int) *Pipeline {
	return NewPipeline(chunker.New(chunker.WithChunkSize(chunkSize)))
}

// buildParagraphChunker creates the paragraph chunker from generic config.
// Supported config keys:
//   - chunk_size (int): character budget per chunk (default: 1000)
func buildParagraphChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
