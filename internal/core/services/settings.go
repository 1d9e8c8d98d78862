package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedBatchSize  = "embedding.batch_size"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyEmbedAPIKey     = "embedding.api_key"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyChunkSize       = "ingest.chunk_size"
	keyTextThreshold   = "ingest.text_threshold"
	keyEmailThreshold  = "ingest.email_threshold"
	keyDedupChars      = "ingest.dedup_sample_chars"
	keyKeepOriginals   = "ingest.keep_originals"
	keyExtract         = "ingest.extract_structured"
	keyOrgInterval     = "organizer.interval"
	keyOrgTopTags      = "organizer.top_tags"
	keyOrgReducer      = "organizer.reducer"
	keyOrgReuse        = "organizer.reuse_embeddings"
	keyOrgMinCluster   = "organizer.min_cluster_size"
	keyOrgMinSamples   = "organizer.min_samples"
	keyOrgSampleSize   = "organizer.sample_size"
	keyOrgTextChars    = "organizer.text_chars"
	keyOrgComponents   = "organizer.components"
	keyOrgLabelWords   = "organizer.label_words"
	keyWatchDirs       = "watch.directories"
	keyWatchScan       = "watch.initial_scan"
	keyWatchDebounce   = "watch.debounce"
	keyEmailPoll       = "email.poll_interval"
	keyEmailBackfill   = "email.backfill"
	keyEmailAppleMail  = "email.apple_mail"
	keyAPIEnabled      = "api.enabled"
	keyAPIAddr         = "api.addr"
	keyMCPEnabled      = "mcp.enabled"
	keyMCPAddr         = "mcp.addr"
	keySchedEnabled    = "scheduler.enabled"
	keySchedTick       = "scheduler.tick"
	keySchedReconcile  = "scheduler.reconcile_interval"
	keySchedReconcileE = "scheduler.reconcile_enabled"
)

type configValue struct {
	key string
	val any
}

// SettingsService maps config keys onto typed application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// aiValidator is optional; without it connectivity checks are skipped.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Unset or invalid keys take
// their default value.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:           s.getString(keyEmbedBaseURL, d.Embedding.BaseURL),
			APIKey:            s.getString(keyEmbedAPIKey, ""),
			Dimensions:        s.getInt(keyEmbedDims, d.Embedding.Dimensions),
			BatchSize:         s.getInt(keyEmbedBatchSize, d.Embedding.BatchSize),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, d.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.getString(keyLLMBaseURL, d.LLM.BaseURL),
			APIKey:   s.getString(keyLLMAPIKey, ""),
		},
		Ingest: domain.IngestSettings{
			ChunkSize:        s.getInt(keyChunkSize, d.Ingest.ChunkSize),
			TextThreshold:    s.getFloat(keyTextThreshold, d.Ingest.TextThreshold),
			EmailThreshold:   s.getFloat(keyEmailThreshold, d.Ingest.EmailThreshold),
			DedupSampleChars: s.getInt(keyDedupChars, d.Ingest.DedupSampleChars),
			KeepOriginals:    s.getBool(keyKeepOriginals, d.Ingest.KeepOriginals),
			ExtractText:      s.getBool(keyExtract, d.Ingest.ExtractText),
		},
		Organizer: domain.OrganizerSettings{
			Interval:        s.getDuration(keyOrgInterval, d.Organizer.Interval),
			TopTags:         s.getInt(keyOrgTopTags, d.Organizer.TopTags),
			Reducer:         s.getReducer(d.Organizer.Reducer),
			ReuseEmbeddings: s.getBool(keyOrgReuse, d.Organizer.ReuseEmbeddings),
			Clustering: domain.ClusteringParams{
				MinClusterSize: s.getInt(keyOrgMinCluster, d.Organizer.Clustering.MinClusterSize),
				MinSamples:     s.getInt(keyOrgMinSamples, d.Organizer.Clustering.MinSamples),
				SampleSize:     s.getInt(keyOrgSampleSize, d.Organizer.Clustering.SampleSize),
				TextChars:      s.getInt(keyOrgTextChars, d.Organizer.Clustering.TextChars),
				Components:     s.getInt(keyOrgComponents, d.Organizer.Clustering.Components),
				LabelWords:     s.getInt(keyOrgLabelWords, d.Organizer.Clustering.LabelWords),
			},
		},
		Watch: domain.WatchSettings{
			Directories: s.configStore.GetStringSlice(keyWatchDirs),
			InitialScan: s.getBool(keyWatchScan, d.Watch.InitialScan),
			Debounce:    s.getDuration(keyWatchDebounce, d.Watch.Debounce),
		},
		Email: domain.EmailSettings{
			PollInterval: s.getDuration(keyEmailPoll, d.Email.PollInterval),
			Backfill:     s.getInt(keyEmailBackfill, d.Email.Backfill),
			AppleMail:    s.getBool(keyEmailAppleMail, d.Email.AppleMail),
		},
		API: domain.APISettings{
			Enabled: s.getBool(keyAPIEnabled, d.API.Enabled),
			Addr:    s.getString(keyAPIAddr, d.API.Addr),
		},
		MCP: domain.MCPSettings{
			Enabled: s.getBool(keyMCPEnabled, d.MCP.Enabled),
			Addr:    s.getString(keyMCPAddr, d.MCP.Addr),
		},
	}

	settings.Scheduler = s.schedulerConfig(d.Scheduler, settings.Organizer.Interval)

	return settings, nil
}

// schedulerConfig derives task intervals. The clustering task follows
// organizer.interval so there is a single knob for the ML loop.
func (s *SettingsService) schedulerConfig(d domain.SchedulerConfig, organizeEvery time.Duration) domain.SchedulerConfig {
	reconcile := d.GetTaskConfig(domain.TaskIDReconcile)
	organize := d.GetTaskConfig(domain.TaskIDOrganize)

	return domain.SchedulerConfig{
		Enabled: s.getBool(keySchedEnabled, d.Enabled),
		Tick:    s.getDuration(keySchedTick, d.Tick),
		TaskConfigs: map[string]domain.TaskConfig{
			domain.TaskIDOrganize: {
				Enabled:  organize.Enabled,
				Interval: organizeEvery,
			},
			domain.TaskIDReconcile: {
				Enabled:  s.getBool(keySchedReconcileE, reconcile.Enabled),
				Interval: s.getDuration(keySchedReconcile, reconcile.Interval),
			},
		},
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []configValue{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMAPIKey, settings.LLM.APIKey},
		{keyChunkSize, settings.Ingest.ChunkSize},
		{keyTextThreshold, settings.Ingest.TextThreshold},
		{keyEmailThreshold, settings.Ingest.EmailThreshold},
		{keyDedupChars, settings.Ingest.DedupSampleChars},
		{keyKeepOriginals, settings.Ingest.KeepOriginals},
		{keyExtract, settings.Ingest.ExtractText},
		{keyOrgInterval, settings.Organizer.Interval.String()},
		{keyOrgTopTags, settings.Organizer.TopTags},
		{keyOrgReducer, string(settings.Organizer.Reducer)},
		{keyOrgReuse, settings.Organizer.ReuseEmbeddings},
		{keyOrgMinCluster, settings.Organizer.Clustering.MinClusterSize},
		{keyOrgMinSamples, settings.Organizer.Clustering.MinSamples},
		{keyOrgSampleSize, settings.Organizer.Clustering.SampleSize},
		{keyOrgTextChars, settings.Organizer.Clustering.TextChars},
		{keyOrgComponents, settings.Organizer.Clustering.Components},
		{keyOrgLabelWords, settings.Organizer.Clustering.LabelWords},
		{keyWatchDirs, settings.Watch.Directories},
		{keyWatchScan, settings.Watch.InitialScan},
		{keyWatchDebounce, settings.Watch.Debounce.String()},
		{keyEmailPoll, settings.Email.PollInterval.String()},
		{keyEmailBackfill, settings.Email.Backfill},
		{keyEmailAppleMail, settings.Email.AppleMail},
		{keyAPIEnabled, settings.API.Enabled},
		{keyAPIAddr, settings.API.Addr},
		{keyMCPEnabled, settings.MCP.Enabled},
		{keyMCPAddr, settings.MCP.Addr},
		{keySchedEnabled, settings.Scheduler.Enabled},
		{keySchedTick, settings.Scheduler.Tick.String()},
	}

	reconcile := settings.Scheduler.GetTaskConfig(domain.TaskIDReconcile)
	if reconcile.Interval > 0 {
		values = append(values,
			configValue{keySchedReconcile, reconcile.Interval.String()},
			configValue{keySchedReconcileE, reconcile.Enabled},
		)
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider switches the embedding provider and model.
// Changing the model of a populated vector store fails at next startup with
// a dimension mismatch, so callers should warn before doing so.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, baseURL string) error {
	if !provider.IsValid() || (provider != domain.AIProviderNone && !provider.SupportsEmbeddings()) {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	switched := settings.Embedding.Provider != provider
	settings.Embedding.Provider = provider
	switch {
	case model != "":
		settings.Embedding.Model = model
	case provider == domain.AIProviderHashing:
		settings.Embedding.Model = fmt.Sprintf("hashing-%d", settings.Embedding.Dimensions)
	default:
		settings.Embedding.Model = provider.DefaultEmbeddingModel()
	}
	switch {
	case baseURL != "":
		settings.Embedding.BaseURL = baseURL
	case switched:
		settings.Embedding.BaseURL = provider.DefaultBaseURL()
	}

	return s.Save(settings)
}

// SetLLMProvider switches the chat model.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, baseURL string) error {
	if !provider.IsValid() || provider == domain.AIProviderHashing {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	switched := settings.LLM.Provider != provider
	settings.LLM.Provider = provider
	switch {
	case model != "":
		settings.LLM.Model = model
	case switched && provider.SupportsChat():
		settings.LLM.Model = provider.DefaultChatModel()
	}
	switch {
	case baseURL != "":
		settings.LLM.BaseURL = baseURL
	case switched:
		settings.LLM.BaseURL = provider.DefaultBaseURL()
	}

	return s.Save(settings)
}

// Validate checks current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig pings the configured LLM provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat64(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getReducer(defaultVal domain.ReducerKind) domain.ReducerKind {
	val := s.configStore.GetString(keyOrgReducer)
	if val == "" {
		return defaultVal
	}
	kind := domain.ReducerKind(val)
	if !kind.IsValid() {
		return defaultVal
	}
	return kind
}
