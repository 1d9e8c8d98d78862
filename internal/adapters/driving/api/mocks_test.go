package api

import (
	"context"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
)

type mockSearchService struct {
	results []domain.SearchResult
	stats   *domain.Stats
	tags    []domain.TagCount
	recent  []domain.Document
	summary *domain.Summary
	doc     *domain.Document
	err     error

	lastQuery string
	lastOpts  domain.SearchOptions
	lastLimit int
	lastName  string
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) Stats(context.Context) (*domain.Stats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func (m *mockSearchService) Tags(_ context.Context, limit int) ([]domain.TagCount, error) {
	m.lastLimit = limit
	return m.tags, m.err
}

func (m *mockSearchService) Recent(_ context.Context, limit int) ([]domain.Document, error) {
	m.lastLimit = limit
	return m.recent, m.err
}

func (m *mockSearchService) Summary(_ context.Context, name string) (*domain.Summary, error) {
	m.lastName = name
	if m.err != nil {
		return nil, m.err
	}
	if m.summary == nil {
		return nil, domain.ErrNotFound
	}
	return m.summary, nil
}

func (m *mockSearchService) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.doc == nil || m.doc.ID != id {
		return nil, domain.ErrNotFound
	}
	return m.doc, nil
}

type mockIngestionService struct {
	result *domain.IngestResult
	report *domain.ReconcileReport
	err    error

	text     string
	source   string
	fileName string
	fileData []byte
}

func (m *mockIngestionService) IngestFile(context.Context, string) (*domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestionService) IngestUpload(_ context.Context, name string, data []byte) (*domain.IngestResult, error) {
	m.fileName = name
	m.fileData = data
	return m.result, m.err
}

func (m *mockIngestionService) IngestText(_ context.Context, text, source string) (*domain.IngestResult, error) {
	m.text = text
	m.source = source
	return m.result, m.err
}

func (m *mockIngestionService) IngestEmail(context.Context, domain.EmailMessage) (*domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestionService) Reconcile(context.Context) (*domain.ReconcileReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

type mockEmailService struct {
	accounts []domain.EmailCredential
	err      error
	input    domain.EmailAccountInput
}

func (m *mockEmailService) Add(_ context.Context, in domain.EmailAccountInput) (*domain.EmailCredential, error) {
	m.input = in
	if m.err != nil {
		return nil, m.err
	}
	return &domain.EmailCredential{
		ID:                "acct-1",
		Address:           in.Address,
		Server:            in.Server,
		Port:              in.Port,
		Mailbox:           domain.DefaultMailbox,
		UseTLS:            in.UseTLS,
		EncryptedPassword: "sealed",
	}, nil
}

func (m *mockEmailService) List(context.Context) ([]domain.EmailCredential, error) {
	return m.accounts, m.err
}

func (m *mockEmailService) Password(*domain.EmailCredential) (string, error) {
	return "", m.err
}

func (m *mockEmailService) MarkSeen(context.Context, string, uint32) error {
	return m.err
}

func (m *mockEmailService) Remove(context.Context, string) error {
	return m.err
}

type mockChatService struct {
	reply   *domain.ChatReply
	history []domain.ChatMessage
	err     error

	session string
	message string
}

func (m *mockChatService) Ask(_ context.Context, sessionID, message string) (*domain.ChatReply, error) {
	m.session = sessionID
	m.message = message
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}

func (m *mockChatService) History(_ context.Context, sessionID string, _ int) ([]domain.ChatMessage, error) {
	m.session = sessionID
	return m.history, m.err
}

type mockProjectService struct {
	projects map[string]*domain.Project
	items    map[string][]domain.ChecklistItem
	err      error
}

func newMockProjectService() *mockProjectService {
	return &mockProjectService{
		projects: make(map[string]*domain.Project),
		items:    make(map[string][]domain.ChecklistItem),
	}
}

func (m *mockProjectService) Create(_ context.Context, name, description string) (*domain.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.projects {
		if p.Name == name {
			return nil, domain.ErrAlreadyExists
		}
	}
	p := &domain.Project{ID: "p-" + name, Name: name, Description: description}
	m.projects[p.ID] = p
	return p, nil
}

func (m *mockProjectService) List(context.Context) ([]domain.Project, error) {
	out := make([]domain.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, *p)
	}
	return out, m.err
}

func (m *mockProjectService) Get(_ context.Context, id string) (*domain.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockProjectService) Delete(_ context.Context, id string) error {
	if _, ok := m.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *mockProjectService) AddItem(_ context.Context, projectID, text string) (*domain.ChecklistItem, error) {
	if _, ok := m.projects[projectID]; !ok {
		return nil, domain.ErrNotFound
	}
	item := domain.ChecklistItem{
		ID:        projectID + "-i" + string(rune('0'+len(m.items[projectID]))),
		ProjectID: projectID,
		Text:      text,
		Position:  len(m.items[projectID]),
	}
	m.items[projectID] = append(m.items[projectID], item)
	return &item, nil
}

func (m *mockProjectService) SetItemDone(_ context.Context, projectID, itemID string, done bool) (*domain.ChecklistItem, error) {
	for i := range m.items[projectID] {
		if m.items[projectID][i].ID == itemID {
			m.items[projectID][i].Done = done
			item := m.items[projectID][i]
			return &item, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockProjectService) Items(_ context.Context, projectID string) ([]domain.ChecklistItem, error) {
	if _, ok := m.projects[projectID]; !ok {
		return nil, domain.ErrNotFound
	}
	return m.items[projectID], nil
}

var (
	_ driving.SearchService       = (*mockSearchService)(nil)
	_ driving.IngestionService    = (*mockIngestionService)(nil)
	_ driving.EmailAccountService = (*mockEmailService)(nil)
	_ driving.ChatService         = (*mockChatService)(nil)
	_ driving.ProjectService      = (*mockProjectService)(nil)
)
