// Package app assembles the adapters and services of one unlocked database.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/promethean-light/internal/adapters/driven/ai"
	"github.com/custodia-labs/promethean-light/internal/adapters/driven/config/file"
	"github.com/custodia-labs/promethean-light/internal/adapters/driven/crypto"
	"github.com/custodia-labs/promethean-light/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/promethean-light/internal/adapters/driven/storage/encrypted"
	"github.com/custodia-labs/promethean-light/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/promethean-light/internal/adapters/driven/vectordb"
	"github.com/custodia-labs/promethean-light/internal/clustering/reduce"
	"github.com/custodia-labs/promethean-light/internal/connectors/filesystem"
	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
	"github.com/custodia-labs/promethean-light/internal/core/services"
	"github.com/custodia-labs/promethean-light/internal/logger"
	"github.com/custodia-labs/promethean-light/internal/normalisers"
	"github.com/custodia-labs/promethean-light/internal/postprocessors"
	"github.com/custodia-labs/promethean-light/internal/workspace"
)

// EnvPassphrase supplies the passphrase non-interactively.
const EnvPassphrase = "PROMETHEAN_PASSPHRASE"

// vectorKeyPurpose derives the badger encryption key.
const vectorKeyPurpose = "vectordb"

// Options selects the database to open.
type Options struct {
	// Home overrides PROMETHEAN_HOME.
	Home string

	// Database overrides PROMETHEAN_DB.
	Database string

	// Iterations overrides the PBKDF2 work factor. Tests only.
	Iterations int
}

// Config is the unlocked-free part of the application: the workspace, the
// selected database and the settings. It never needs the passphrase.
type Config struct {
	Workspace *workspace.Workspace
	Database  *workspace.Database
	Settings  *services.SettingsService
	Prompts   *file.PromptStore

	iterations int
}

// LoadConfig resolves the workspace and settings for opts. .env files in
// the home and working directories are loaded first.
func LoadConfig(opts Options) (*Config, error) {
	ws, err := workspace.Resolve(opts.Home)
	if err != nil {
		return nil, err
	}
	cwd, _ := os.Getwd()
	if err := file.LoadDotEnv(ws.Home, cwd); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	db, err := ws.Open(workspace.DatabaseName(opts.Database))
	if err != nil {
		return nil, err
	}

	store, err := file.NewConfigStore(ws.Home)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	prompts, err := file.NewPromptStore(ws.PromptsDir())
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	return &Config{
		Workspace:  ws,
		Database:   db,
		Settings:   services.NewSettingsService(file.NewEnvOverlay(store), ai.NewConfigValidator()),
		Prompts:    prompts,
		iterations: opts.Iterations,
	}, nil
}

// Cipher returns a locked key manager for the selected database.
func (c *Config) Cipher() *crypto.Manager {
	var opts []crypto.Option
	if c.iterations > 0 {
		opts = append(opts, crypto.WithIterations(c.iterations))
	}
	return crypto.NewManager(c.Database.Dir, opts...)
}

// Setup sets the passphrase of a database that has none yet.
func (c *Config) Setup(passphrase string) error {
	return c.Cipher().Setup(passphrase)
}

// App holds every service of an unlocked database.
type App struct {
	Config   *Config
	Settings domain.AppSettings
	Cipher   *crypto.Manager

	Store   *sqlite.Store
	Vectors *vectordb.Store
	Blobs   *encrypted.Store
	AI      *ai.InitResult

	Ingestion *services.IngestionService
	Organizer *services.Organizer
	Search    *services.SearchService
	Chat      *services.ChatService
	Projects  *services.ProjectService
	Email     *services.EmailAccountService
	Scheduler *services.Scheduler
}

// Open unlocks the database with passphrase and wires all services.
// An empty passphrase falls back to PROMETHEAN_PASSPHRASE.
func (c *Config) Open(ctx context.Context, passphrase string) (_ *App, err error) {
	cipher := c.Cipher()
	if !cipher.IsSetUp() {
		return nil, fmt.Errorf("database %q: %w", c.Database.Name, domain.ErrNotSetUp)
	}
	if passphrase == "" {
		passphrase = os.Getenv(EnvPassphrase)
	}
	if passphrase == "" {
		return nil, fmt.Errorf("%w: passphrase required", domain.ErrLocked)
	}
	if err := cipher.Unlock(passphrase); err != nil {
		return nil, err
	}

	settings, err := c.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	a := &App{Config: c, Settings: *settings, Cipher: cipher}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.Store, err = sqlite.NewStore(c.Database.Dir); err != nil {
		return nil, err
	}

	if a.AI, err = ai.Init(ctx, a.Settings, c.Prompts); err != nil {
		return nil, fmt.Errorf("init embedding: %w", err)
	}
	for _, w := range a.AI.Warnings {
		logger.Warn("%s", w)
	}

	key, err := cipher.Subkey(vectorKeyPurpose)
	if err != nil {
		return nil, err
	}
	model := a.AI.EmbeddingService.ModelName()
	a.Vectors, err = vectordb.Open(c.Database.VectorsDir(), vectordb.Options{
		Dimensions:    a.AI.Dimensions,
		Model:         model,
		EncryptionKey: key,
		Replaceable:   replaceableBy(model),
	})
	if errors.Is(err, domain.ErrDimensionMismatch) && a.AI.FellBack {
		return nil, fmt.Errorf("%w: %s is unreachable and the %s fallback cannot read the existing vectors: %w",
			domain.ErrEmbeddingUnavailable, a.Settings.Embedding.Provider, model, err)
	}
	if err != nil {
		return nil, err
	}
	if a.Vectors.Replaced() {
		logger.Warn("Vector index emptied for %s; run 'promethean reconcile' to re-embed", model)
	}

	if a.Blobs, err = encrypted.NewStore(c.Database.BlobsDir(), cipher); err != nil {
		return nil, err
	}

	a.wire()
	return a, nil
}

func (a *App) wire() {
	docs := a.Store.DocumentStore()
	embedder := a.AI.EmbeddingService

	a.Organizer = services.NewOrganizer(docs, a.Store.TagStore(), a.Store.ClusterStore(),
		embedder, newReducer(a.Settings.Organizer.Reducer), a.Settings.Organizer)
	a.Organizer.SetBlobStore(a.Blobs)

	a.Ingestion = services.NewIngestionService(docs, a.Vectors, embedder,
		postprocessors.DefaultPipeline(a.Settings.Ingest.ChunkSize),
		filesystem.NewReader(0), a.Settings.Ingest)
	a.Ingestion.SetTagger(a.Organizer)
	a.Ingestion.SetCipher(a.Cipher)
	a.Ingestion.SetBlobStore(a.Blobs)
	if a.Settings.Ingest.ExtractText {
		a.Ingestion.SetExtractor(normalisers.Default())
	}

	a.Search = services.NewSearchService(docs, a.Store.TagStore(), a.Store.ClusterStore(),
		a.Vectors, embedder, a.AI.LLMService)
	a.Search.SetPromptStore(a.Config.Prompts)

	a.Chat = services.NewChatService(a.Search, a.AI.LLMService, a.Store.ChatStore())
	a.Chat.SetPromptStore(a.Config.Prompts)

	a.Projects = services.NewProjectService(a.Store.ProjectStore())
	a.Email = services.NewEmailAccountService(a.Store.EmailCredentialStore(), a.Cipher)
	a.Scheduler = services.NewScheduler(a.Settings.Scheduler, a.Store.SchedulerStore(), a.Organizer, a.Ingestion)
	a.Scheduler.SetClusteringParams(a.Settings.Organizer.Clustering)
}

// replaceableBy lets a model-backed embedder take over a collection that
// the offline hashing embedder built while the model server was down.
func replaceableBy(model string) func(string) bool {
	return func(stored string) bool {
		return strings.HasPrefix(stored, hashing.ModelPrefix) && !strings.HasPrefix(model, hashing.ModelPrefix)
	}
}

// newReducer selects the configured reducer. A nil reducer leaves the
// organizer tag-only.
func newReducer(kind domain.ReducerKind) driven.Reducer {
	r, err := reduce.Select(kind)
	if err != nil {
		if kind != domain.ReducerNone {
			logger.Warn("Clustering disabled: %v", err)
		}
		return nil
	}
	logger.Debug("Using %s reducer", r.Name())
	return r
}

// Close releases every store. It is safe on a partially opened App.
func (a *App) Close() error {
	var errs []error
	if a.Vectors != nil {
		errs = append(errs, a.Vectors.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.AI != nil {
		a.AI.Close()
	}
	return errors.Join(errs...)
}
