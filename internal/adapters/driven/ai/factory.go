// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/promethean-light/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/promethean-light/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/promethean-light/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/promethean-light/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/promethean-light/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/promethean-light/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // nil when chat is unavailable
	Dimensions       int               // negotiated embedding dimension
	Warnings         []string          // Non-fatal issues that caused fallback.
	FellBack         bool              // True if embeddings fell back to the hashing provider.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds the embedding and LLM services from settings. An unreachable
// model-backed embedder falls back to the hashing provider and an
// unreachable LLM is dropped; both cases add a warning. Only a failure of
// the fallback embedder is returned as an error.
func Init(ctx context.Context, settings domain.AppSettings, prompts driven.PromptStore) (*InitResult, error) {
	result := &InitResult{}

	embedder, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	if embedder == nil {
		embedder = hashing.NewEmbeddingService(settings.Embedding.Dimensions)
		result.FellBack = settings.Embedding.Provider != domain.AIProviderHashing
	}

	dims, err := NegotiateDimensions(ctx, embedder)
	if err != nil && !result.FellBack {
		embedder.Close()
		result.Warnings = append(result.Warnings, err.Error())
		embedder = hashing.NewEmbeddingService(settings.Embedding.Dimensions)
		result.FellBack = true
		dims, err = NegotiateDimensions(ctx, embedder)
	}
	if err != nil {
		return nil, err
	}
	result.EmbeddingService = embedder
	result.Dimensions = dims

	llm, err := CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	} else if llm != nil {
		if aware, ok := llm.(interface{ SetPromptStore(driven.PromptStore) }); ok && prompts != nil {
			aware.SetPromptStore(prompts)
		}
		result.LLMService = llm
	}

	return result, nil
}

// dimensionDetector is implemented by embedders whose dimension is only known after
// a live request.
type dimensionDetector interface {
	DetectDimensions(ctx context.Context) (int, error)
}

// NegotiateDimensions returns the vector size the embedder really
// produces, running a test request when the service supports it.
func NegotiateDimensions(ctx context.Context, svc driven.EmbeddingService) (int, error) {
	if svc == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}
	dims := svc.Dimensions()
	if p, ok := svc.(dimensionDetector); ok {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		detected, err := p.DetectDimensions(ctx)
		if err != nil {
			return 0, fmt.Errorf("%w: detect dimensions of %s: %w", domain.ErrEmbeddingUnavailable, svc.ModelName(), err)
		}
		dims = detected
	}
	if dims <= 0 {
		return 0, fmt.Errorf("%w: %s reported no dimensions", domain.ErrEmbeddingUnavailable, svc.ModelName())
	}
	return dims, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	if err := ping(svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s at %s unreachable (%w)",
			domain.ErrEmbeddingUnavailable, settings.Provider, endpoint(settings.BaseURL), err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	if err := ping(svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s at %s unreachable (%w)",
			domain.ErrLLMUnavailable, settings.Provider, endpoint(settings.BaseURL), err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig creates a service from settings and pings it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc.Ping)
}

// ValidateLLMConfig creates a service from settings and pings it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc.Ping)
}

// CreateEmbeddingService creates the embedding service selected by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderHashing:
		return hashing.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			BatchSize:         settings.BatchSize,
			RequestsPerSecond: settings.RequestsPerSecond,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			BatchSize:         settings.BatchSize,
			RequestsPerSecond: settings.RequestsPerSecond,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service selected by settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderAnthropic:
		svc, err := anthropic.NewLLMService(anthropic.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, errors.New("unsupported LLM provider: " + settings.Provider.String())
	}
}

func endpoint(baseURL string) string {
	if baseURL == "" {
		return "default endpoint"
	}
	return baseURL
}

func ping(fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return fn(ctx)
}
