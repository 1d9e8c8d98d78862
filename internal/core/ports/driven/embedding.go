package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// EmbeddingService generates vectors; VectorStore stores them. The vector
// collection is created with the dimension reported here.
//
// Implementations:
//   - Ollama (nomic-embed-text, all-minilm), the default
//   - OpenAI-compatible servers (OpenAI, LM Studio, llama.cpp, vLLM)
//   - hashing (built-in, deterministic, offline fallback)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
