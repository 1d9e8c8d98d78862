package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// mockSearchService records the last query and returns canned data.
type mockSearchService struct {
	results   []domain.SearchResult
	stats     *domain.Stats
	tags      []domain.TagCount
	recent    []domain.Document
	summary   *domain.Summary
	doc       *domain.Document
	err       error
	lastQuery string
	lastOpts  domain.SearchOptions
	lastLimit int
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) Stats(_ context.Context) (*domain.Stats, error) {
	if m.stats == nil {
		return &domain.Stats{}, m.err
	}
	return m.stats, m.err
}

func (m *mockSearchService) Tags(_ context.Context, limit int) ([]domain.TagCount, error) {
	m.lastLimit = limit
	return m.tags, m.err
}

func (m *mockSearchService) Recent(_ context.Context, limit int) ([]domain.Document, error) {
	m.lastLimit = limit
	return m.recent, m.err
}

func (m *mockSearchService) Summary(_ context.Context, _ string) (*domain.Summary, error) {
	if m.summary == nil && m.err == nil {
		return nil, domain.ErrNotFound
	}
	return m.summary, m.err
}

func (m *mockSearchService) GetDocument(_ context.Context, _ string) (*domain.Document, error) {
	if m.doc == nil {
		return nil, domain.ErrNotFound
	}
	return m.doc, nil
}

// mockIngestionService returns result for every call and records inputs.
type mockIngestionService struct {
	result  *domain.IngestResult
	report  *domain.ReconcileReport
	err     error
	texts   []string
	sources []string
	files   []string
}

func (m *mockIngestionService) res() *domain.IngestResult {
	if m.result == nil {
		return &domain.IngestResult{Status: domain.IngestCreated, DocumentID: "doc-1", ChunkCount: 1}
	}
	return m.result
}

func (m *mockIngestionService) IngestFile(_ context.Context, path string) (*domain.IngestResult, error) {
	m.files = append(m.files, path)
	if m.err != nil {
		return nil, m.err
	}
	return m.res(), nil
}

func (m *mockIngestionService) IngestUpload(_ context.Context, name string, _ []byte) (*domain.IngestResult, error) {
	m.files = append(m.files, name)
	return m.res(), m.err
}

func (m *mockIngestionService) IngestText(_ context.Context, text, source string) (*domain.IngestResult, error) {
	m.texts = append(m.texts, text)
	m.sources = append(m.sources, source)
	if m.err != nil {
		return nil, m.err
	}
	return m.res(), nil
}

func (m *mockIngestionService) IngestEmail(_ context.Context, msg domain.EmailMessage) (*domain.IngestResult, error) {
	m.texts = append(m.texts, msg.Text())
	return m.res(), m.err
}

func (m *mockIngestionService) Reconcile(_ context.Context) (*domain.ReconcileReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.report == nil {
		return &domain.ReconcileReport{}, nil
	}
	return m.report, nil
}

type mockChatService struct {
	reply    *domain.ChatReply
	err      error
	sessions []string
	messages []string
}

func (m *mockChatService) Ask(_ context.Context, sessionID, message string) (*domain.ChatReply, error) {
	m.sessions = append(m.sessions, sessionID)
	m.messages = append(m.messages, message)
	return m.reply, m.err
}

func (m *mockChatService) History(_ context.Context, _ string, _ int) ([]domain.ChatMessage, error) {
	return nil, m.err
}

type mockEmailService struct {
	added   []domain.EmailAccountInput
	creds   []domain.EmailCredential
	removed []string
	err     error
}

func (m *mockEmailService) Add(_ context.Context, in domain.EmailAccountInput) (*domain.EmailCredential, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m.added = append(m.added, in)
	return &domain.EmailCredential{
		ID: "acct-1", Address: in.Address, Server: in.Server, Port: in.Port,
		Username: in.Username, Mailbox: in.Mailbox, UseTLS: in.UseTLS,
	}, nil
}

func (m *mockEmailService) List(_ context.Context) ([]domain.EmailCredential, error) {
	return m.creds, m.err
}

func (m *mockEmailService) Password(_ *domain.EmailCredential) (string, error) {
	return "", m.err
}

func (m *mockEmailService) MarkSeen(_ context.Context, _ string, _ uint32) error {
	return m.err
}

func (m *mockEmailService) Remove(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, id)
	return nil
}

type mockOrganizer struct {
	outcome domain.ClusteringOutcome
	err     error
	calls   int
	params  domain.ClusteringParams
}

func (m *mockOrganizer) AutoTag(_ string) []domain.TagSuggestion { return nil }

func (m *mockOrganizer) TagDocument(_ context.Context, _ *domain.Document) ([]domain.Tag, error) {
	return nil, m.err
}

func (m *mockOrganizer) RunClustering(
	_ context.Context, _ domain.CorpusSnapshot, params domain.ClusteringParams,
) (domain.ClusteringOutcome, error) {
	m.calls++
	m.params = params
	return m.outcome, m.err
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	embedErr    error
	llmErr      error
	saved       int
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	m.saved++
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, baseURL string) error {
	m.settings.Embedding.Provider = p
	m.settings.Embedding.Model = model
	if baseURL != "" {
		m.settings.Embedding.BaseURL = baseURL
	}
	m.saved++
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, baseURL string) error {
	if p == domain.AIProviderHashing {
		return domain.ErrInvalidInput
	}
	m.settings.LLM.Provider = p
	if model != "" {
		m.settings.LLM.Model = model
	}
	if baseURL != "" {
		m.settings.LLM.BaseURL = baseURL
	}
	m.saved++
	return nil
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.embedErr }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.llmErr }

// testServices bundles the mocks injected by setupTestServices.
type testServices struct {
	search    *mockSearchService
	ingestion *mockIngestionService
	chat      *mockChatService
	email     *mockEmailService
	organizer *mockOrganizer
	settings  *mockSettingsService
}

// setupTestServices injects fresh mocks and restores the globals on cleanup.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()
	ts := &testServices{
		search:    &mockSearchService{},
		ingestion: &mockIngestionService{},
		chat:      &mockChatService{},
		email:     &mockEmailService{},
		organizer: &mockOrganizer{},
		settings:  newMockSettingsService(),
	}
	searchService = ts.search
	ingestionService = ts.ingestion
	chatService = ts.chat
	emailService = ts.email
	organizerService = ts.organizer
	settingsService = ts.settings

	t.Cleanup(func() {
		searchService = nil
		ingestionService = nil
		chatService = nil
		emailService = nil
		organizerService = nil
		settingsService = nil
	})
	return ts
}

// execute runs the root command with args and stdin, returning everything
// written to stdout and stderr.
func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(in))
	rootCmd.SetArgs(args)
	stdin = nil
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		stdin = nil
	}()

	err := Execute()
	return buf.String(), err
}

// resetFlags restores every flag below cmd to its default, since cobra
// keeps parsed values between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
