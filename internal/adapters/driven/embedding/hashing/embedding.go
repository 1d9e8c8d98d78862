// Package hashing provides a deterministic, offline embedding service.
//
// Vectors are built by feature hashing: every lower-cased word and every
// character trigram of the text is hashed into one of N buckets with a
// signed weight, then the vector is L2-normalised. Texts that share words
// land close together under cosine similarity, which is enough for
// deduplication, search and clustering without a model server.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/viterin/vek/vek32"

	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultDimensions = 384
	ModelPrefix       = "hashing-"

	// trigramWeight scales character features relative to whole words.
	trigramWeight = 0.5
)

// EmbeddingService hashes text into fixed-size vectors.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder. Non-positive dimensions
// select DefaultDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vectorise(text), nil
}

// EmbedBatch generates embeddings for multiple texts in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.vectorise(text)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns hashing-<dimensions>.
func (s *EmbeddingService) ModelName() string {
	return fmt.Sprintf("%s%d", ModelPrefix, s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) vectorise(text string) []float32 {
	vec := make([]float32, s.dimensions)

	for _, word := range words(text) {
		s.add(vec, "w:"+word, 1)

		runes := []rune(word)
		if len(runes) < 3 {
			continue
		}
		for i := 0; i+3 <= len(runes); i++ {
			s.add(vec, "t:"+string(runes[i:i+3]), trigramWeight)
		}
	}

	if norm := vek32.Norm(vec); norm > 0 {
		vek32.DivNumber_Inplace(vec, norm)
	}
	return vec
}

// add hashes feature into a bucket; one hash bit picks the sign so
// collisions cancel instead of accumulating.
func (s *EmbeddingService) add(acc []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(s.dimensions)) //nolint:gosec // dimensions is positive
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	acc[bucket] += weight
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
