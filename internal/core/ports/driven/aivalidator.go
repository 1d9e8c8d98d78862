package driven

import "github.com/custodia-labs/promethean-light/internal/core/domain"

// AIConfigValidator checks that configured AI providers are reachable.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the LLM provider.
	ValidateLLM(config *domain.LLMSettings) error
}
