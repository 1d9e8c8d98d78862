package driving

import "github.com/custodia-labs/promethean-light/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Validate checks current settings.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// SetEmbeddingProvider selects and persists the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, baseURL string) error

	// SetLLMProvider selects and persists the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, baseURL string) error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error
}
