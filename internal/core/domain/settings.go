package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies a service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the built-in offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is any OpenAI-compatible endpoint: the OpenAI API,
	// or a local server such as LM Studio, llama.cpp or vLLM.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic Messages API. Chat only.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderNone disables the capability.
	AIProviderNone AIProvider = "none"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderNone:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider cannot be used without a key.
// OpenAI-compatible local servers usually accept any key, so only
// Anthropic insists.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderAnthropic
}

// DefaultBaseURL is the endpoint assumed when none is configured.
func (p AIProvider) DefaultBaseURL() string {
	switch p {
	case AIProviderOllama:
		return "http://localhost:11434"
	case AIProviderOpenAI:
		return "https://api.openai.com/v1"
	case AIProviderAnthropic:
		return "https://api.anthropic.com"
	default:
		return ""
	}
}

// DefaultEmbeddingModel is the model picked when switching to p without
// naming one.
func (p AIProvider) DefaultEmbeddingModel() string {
	switch p {
	case AIProviderOllama:
		return "nomic-embed-text"
	case AIProviderOpenAI:
		return "text-embedding-3-small"
	case AIProviderHashing:
		return "hashing-384"
	default:
		return ""
	}
}

// DefaultChatModel is the chat model picked when switching to p without
// naming one.
func (p AIProvider) DefaultChatModel() string {
	switch p {
	case AIProviderOllama:
		return "llama3.2"
	case AIProviderOpenAI:
		return "gpt-4o-mini"
	case AIProviderAnthropic:
		return "claude-3-5-haiku-latest"
	default:
		return ""
	}
}

// SupportsEmbeddings reports whether the provider can back the embedder.
func (p AIProvider) SupportsEmbeddings() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// SupportsChat reports whether the provider can back the LLM.
func (p AIProvider) SupportsChat() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// IsLocal returns true if this provider runs without network access.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Hashing (built-in, offline)"
	case AIProviderOllama:
		return "Ollama (local server)"
	case AIProviderOpenAI:
		return "OpenAI-compatible API"
	case AIProviderAnthropic:
		return "Anthropic (chat only)"
	case AIProviderNone:
		return "Disabled"
	default:
		return unknownDescription
	}
}

// ReducerKind selects the dimensionality reducer used before clustering.
type ReducerKind string

// Reducer choices.
const (
	ReducerAuto   ReducerKind = "auto"
	ReducerPCA    ReducerKind = "pca"
	ReducerRandom ReducerKind = "random"
	ReducerNone   ReducerKind = "none"
)

// IsValid returns true if the reducer kind is recognised.
func (r ReducerKind) IsValid() bool {
	switch r {
	case ReducerAuto, ReducerPCA, ReducerRandom, ReducerNone:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (Ollama or OpenAI-compatible).
	BaseURL string

	// APIKey authenticates against an OpenAI-compatible endpoint.
	APIKey string

	// Dimensions sizes the hashing embedder, which is also the offline
	// fallback when the configured model is unreachable.
	Dimensions int

	// BatchSize caps texts per embedding request.
	BatchSize int

	// RequestsPerSecond limits calls to a remote embedder. Zero is unlimited.
	RequestsPerSecond float64
}

// IsConfigured returns true if an embedding provider is selected.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.IsValid() && e.Provider != AIProviderNone
}

// IsModelBacked reports whether embeddings come from a pretrained model
// rather than the built-in hashing embedder.
func (e EmbeddingSettings) IsModelBacked() bool {
	return e.Provider == AIProviderOllama || e.Provider == AIProviderOpenAI
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey authenticates against a remote provider.
	APIKey string
}

// IsConfigured returns true if an LLM provider is selected.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.SupportsChat()
}

// IngestSettings tunes the ingestion pipeline.
type IngestSettings struct {
	// ChunkSize is the chunker character budget.
	ChunkSize int

	// TextThreshold is the similarity at or above which text is a duplicate.
	TextThreshold float64

	// EmailThreshold is the similarity at or above which email is a duplicate.
	EmailThreshold float64

	// DedupSampleChars is how much leading text is embedded for dedup.
	DedupSampleChars int

	// KeepOriginals stores encrypted copies of ingested files.
	KeepOriginals bool

	// ExtractText pulls text out of DOCX and HTML files before indexing.
	// Off by default, in which case such binary formats are skipped.
	ExtractText bool
}

// OrganizerSettings tunes tagging and clustering.
type OrganizerSettings struct {
	// Interval is the period of the clustering loop.
	Interval time.Duration

	// TopTags is how many frequency keywords are attached per document.
	TopTags int

	// Reducer selects the dimensionality reducer.
	Reducer ReducerKind

	// ReuseEmbeddings reads sample embeddings from the encrypted cache.
	ReuseEmbeddings bool

	// Clustering holds the clustering parameters.
	Clustering ClusteringParams
}

// WatchSettings configures the filesystem watcher.
type WatchSettings struct {
	Directories []string
	InitialScan bool
	Debounce    time.Duration
}

// EmailSettings configures the mail pollers.
type EmailSettings struct {
	PollInterval time.Duration
	Backfill     int
	AppleMail    bool
}

// APISettings configures the HTTP API.
type APISettings struct {
	Enabled bool
	Addr    string
}

// MCPSettings configures the daemon's MCP endpoint. The stdio server of
// `mcp serve` ignores it.
type MCPSettings struct {
	Enabled bool
	Addr    string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Ingest    IngestSettings
	Organizer OrganizerSettings
	Watch     WatchSettings
	Email     EmailSettings
	API       APISettings
	MCP       MCPSettings
	Scheduler SchedulerConfig
}

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      AIProviderOllama.DefaultEmbeddingModel(),
			BaseURL:    "http://localhost:11434",
			Dimensions: 384,
			BatchSize:  32,
		},
		LLM: LLMSettings{
			Provider: AIProviderNone,
			Model:    AIProviderOllama.DefaultChatModel(),
			BaseURL:  "http://localhost:11434",
		},
		Ingest: IngestSettings{
			ChunkSize:        1000,
			TextThreshold:    0.95,
			EmailThreshold:   0.98,
			DedupSampleChars: 500,
		},
		Organizer: OrganizerSettings{
			Interval:        5 * time.Minute,
			TopTags:         5,
			Reducer:         ReducerAuto,
			ReuseEmbeddings: true,
			Clustering:      DefaultClusteringParams(),
		},
		Watch: WatchSettings{
			InitialScan: true,
			Debounce:    500 * time.Millisecond,
		},
		Email: EmailSettings{
			PollInterval: 2 * time.Minute,
			Backfill:     50,
		},
		API: APISettings{
			Enabled: true,
			Addr:    "127.0.0.1:8765",
		},
		MCP: MCPSettings{
			Addr: "127.0.0.1:8766",
		},
		Scheduler: DefaultSchedulerConfig(),
	}
}

// Validate checks that settings are usable.
func (s AppSettings) Validate() error {
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	if s.Embedding.IsConfigured() && !s.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: %s cannot produce embeddings", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.LLM.Provider == AIProviderHashing {
		return fmt.Errorf("%w: hashing cannot serve chat", ErrInvalidInput)
	}
	if s.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)
	}
	for name, v := range map[string]float64{
		"text threshold":  s.Ingest.TextThreshold,
		"email threshold": s.Ingest.EmailThreshold,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%w: %s must be in (0, 1]", ErrInvalidInput, name)
		}
	}
	if !s.Organizer.Reducer.IsValid() {
		return fmt.Errorf("%w: unknown reducer %q", ErrInvalidInput, s.Organizer.Reducer)
	}
	if s.Organizer.Clustering.MinClusterSize < 2 {
		return fmt.Errorf("%w: min cluster size must be at least 2", ErrInvalidInput)
	}
	return nil
}
