package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promethean-light/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

type mockAIValidator struct {
	embedErr error
	llmErr   error
	embedCfg *domain.EmbeddingSettings
}

func (m *mockAIValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.embedCfg = cfg
	return m.embedErr
}

func (m *mockAIValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding, settings.Embedding)
	assert.Equal(t, defaults.LLM, settings.LLM)
	assert.Equal(t, defaults.Ingest, settings.Ingest)
	assert.Equal(t, defaults.Organizer, settings.Organizer)
	assert.Equal(t, defaults.API, settings.API)
	assert.Equal(t, defaults.MCP, settings.MCP)
	assert.False(t, settings.MCP.Enabled)
	assert.Equal(t, defaults.Scheduler.Tick, settings.Scheduler.Tick)
	assert.Equal(t, defaults.Organizer.Interval,
		settings.Scheduler.GetTaskConfig(domain.TaskIDOrganize).Interval)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStoreFrom(map[string]any{
		"embedding.provider":         "ollama",
		"embedding.model":            "all-minilm",
		"ingest.chunk_size":          "800",
		"ingest.text_threshold":      0.9,
		"organizer.interval":         "1m",
		"organizer.reducer":          "random",
		"organizer.reuse_embeddings": false,
		"organizer.min_cluster_size": 3,
		"watch.directories":          []any{"/notes", "/inbox"},
		"email.poll_interval":        30,
		"api.addr":                   "127.0.0.1:9999",
		"mcp.enabled":                true,
	})
	service := NewSettingsService(store, nil)

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "all-minilm", settings.Embedding.Model)
	assert.Equal(t, 800, settings.Ingest.ChunkSize)
	assert.InDelta(t, 0.9, settings.Ingest.TextThreshold, 1e-9)
	assert.Equal(t, time.Minute, settings.Organizer.Interval)
	assert.Equal(t, domain.ReducerRandom, settings.Organizer.Reducer)
	assert.False(t, settings.Organizer.ReuseEmbeddings)
	assert.Equal(t, 3, settings.Organizer.Clustering.MinClusterSize)
	assert.Equal(t, []string{"/notes", "/inbox"}, settings.Watch.Directories)
	assert.Equal(t, 30*time.Second, settings.Email.PollInterval)
	assert.Equal(t, "127.0.0.1:9999", settings.API.Addr)
	assert.True(t, settings.MCP.Enabled)
	assert.Equal(t, "127.0.0.1:8766", settings.MCP.Addr)
	assert.Equal(t, time.Minute, settings.Scheduler.GetTaskConfig(domain.TaskIDOrganize).Interval)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStoreFrom(map[string]any{
		"embedding.provider": "openai",
		"organizer.reducer":  "umap",
		"organizer.interval": "soon",
	})
	service := NewSettingsService(store, nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Organizer.Reducer, settings.Organizer.Reducer)
	assert.Equal(t, defaults.Organizer.Interval, settings.Organizer.Interval)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Ingest.ChunkSize = 1500
	settings.Ingest.EmailThreshold = 0.99
	settings.Organizer.Reducer = domain.ReducerPCA
	settings.Watch.Directories = []string{"/docs"}
	settings.Email.AppleMail = true
	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 1500, got.Ingest.ChunkSize)
	assert.InDelta(t, 0.99, got.Ingest.EmailThreshold, 1e-9)
	assert.Equal(t, domain.ReducerPCA, got.Organizer.Reducer)
	assert.Equal(t, []string{"/docs"}, got.Watch.Directories)
	assert.True(t, got.Email.AppleMail)
	assert.Equal(t, "5m0s", store.GetString("organizer.interval"))
}

func TestSettingsService_Save_RejectsInvalid(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.ErrorIs(t, service.Save(nil), domain.ErrInvalidInput)

	settings := domain.DefaultAppSettings()
	settings.Ingest.TextThreshold = 1.5
	assert.ErrorIs(t, service.Save(&settings), domain.ErrInvalidInput)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	tests := []struct {
		name      string
		provider  domain.AIProvider
		model     string
		wantModel string
		wantErr   bool
	}{
		{name: "ollama default model", provider: domain.AIProviderOllama, wantModel: "nomic-embed-text"},
		{name: "ollama explicit model", provider: domain.AIProviderOllama, model: "all-minilm", wantModel: "all-minilm"},
		{name: "hashing", provider: domain.AIProviderHashing, wantModel: "hashing-384"},
		{name: "openai compatible", provider: domain.AIProviderOpenAI, wantModel: "text-embedding-3-small"},
		{name: "anthropic has no embeddings", provider: domain.AIProviderAnthropic, wantErr: true},
		{name: "unknown", provider: domain.AIProvider("cohere"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore(), nil)

			err := service.SetEmbeddingProvider(tt.provider, tt.model, "")
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)

			settings, err := service.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.Embedding.Provider)
			assert.Equal(t, tt.wantModel, settings.Embedding.Model)
		})
	}
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "mistral", "http://gpu:11434"))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "mistral", settings.LLM.Model)
	assert.Equal(t, "http://gpu:11434", settings.LLM.BaseURL)

	assert.ErrorIs(t, service.SetLLMProvider(domain.AIProviderHashing, "", ""), domain.ErrInvalidInput)
}

func TestSettingsService_SwitchingProviderResetsEndpoint(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "", "http://gpu:11434"))
	require.NoError(t, service.SetLLMProvider(domain.AIProviderAnthropic, "", ""))
	require.NoError(t, store.Set("llm.api_key", "secret"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "https://api.anthropic.com", settings.LLM.BaseURL)
	assert.Equal(t, "claude-3-5-haiku-latest", settings.LLM.Model)
	assert.Equal(t, "secret", settings.LLM.APIKey)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1", settings.Embedding.BaseURL)
}

func TestSettingsService_Validate(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStoreFrom(map[string]any{
		"organizer.min_cluster_size": 1,
	}), nil)

	assert.ErrorIs(t, service.Validate(), domain.ErrInvalidInput)
	assert.NoError(t, NewSettingsService(memory.NewConfigStore(), nil).Validate())
}

func TestSettingsService_ValidateAIConfig(t *testing.T) {
	t.Run("without validator", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		assert.NoError(t, service.ValidateEmbeddingConfig())
		assert.NoError(t, service.ValidateLLMConfig())
	})

	t.Run("with validator", func(t *testing.T) {
		validator := &mockAIValidator{llmErr: errors.New("connection refused")}
		service := NewSettingsService(memory.NewConfigStore(), validator)

		require.NoError(t, service.ValidateEmbeddingConfig())
		require.NotNil(t, validator.embedCfg)
		assert.Equal(t, domain.AIProviderOllama, validator.embedCfg.Provider)
		assert.EqualError(t, service.ValidateLLMConfig(), "connection refused")
	})
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}
