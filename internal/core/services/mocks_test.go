package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
)

// --- Document, tag and cluster stores ---

// mockDocStore implements driven.DocumentStore in memory.
type mockDocStore struct {
	mu        sync.Mutex
	docs      map[string]*domain.Document
	order     []string
	chunks    map[string]domain.Chunk
	saveErr   error
	chunksErr error
	countsErr error
	hashRace  bool
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{
		docs:   make(map[string]*domain.Document),
		chunks: make(map[string]domain.Chunk),
	}
}

func (m *mockDocStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(doc)
}

func (m *mockDocStore) saveLocked(doc *domain.Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.hashRace {
		m.hashRace = false
		winner := *doc
		winner.ID = "winner"
		m.docs[winner.ID] = &winner
		m.order = append(m.order, winner.ID)
		return domain.ErrAlreadyExists
	}
	copied := *doc
	m.docs[doc.ID] = &copied
	m.order = append(m.order, doc.ID)
	return nil
}

func (m *mockDocStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chunksErr != nil {
		return m.chunksErr
	}
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

// SaveDocumentWithChunks writes nothing when either part fails.
func (m *mockDocStore) SaveDocumentWithChunks(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chunksErr != nil && len(chunks) > 0 && m.saveErr == nil && !m.hashRace {
		return m.chunksErr
	}
	if err := m.saveLocked(doc); err != nil {
		return err
	}
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *mockDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *mockDocStore) FindByContentHash(_ context.Context, hash string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if d := m.docs[id]; d.ContentHash != "" && d.ContentHash == hash {
			copied := *d
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocStore) ListDocuments(_ context.Context, limit, offset int) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Document
	for i := len(m.order) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.docs[m.order[i]])
	}
	return out, nil
}

func (m *mockDocStore) SampleDocuments(_ context.Context, limit int) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Document
	for _, id := range m.order {
		if len(out) == limit {
			break
		}
		out = append(out, *m.docs[id])
	}
	return out, nil
}

func (m *mockDocStore) DocumentsByIDs(_ context.Context, ids []string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Document
	for _, id := range ids {
		if d, ok := m.docs[id]; ok {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockDocStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Chunk
	for _, c := range m.chunks {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *mockDocStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *mockDocStore) ListChunksAfter(_ context.Context, afterID string, limit int) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.chunks))
	for id := range m.chunks {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]domain.Chunk, len(ids))
	for i, id := range ids {
		out[i] = m.chunks[id]
	}
	return out, nil
}

func (m *mockDocStore) ChunkExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.chunks[id]
	return ok, nil
}

func (m *mockDocStore) Counts(_ context.Context) (domain.CorpusSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countsErr != nil {
		return domain.CorpusSnapshot{}, m.countsErr
	}
	clusters := make(map[int]bool)
	for _, d := range m.docs {
		if d.ClusterID != nil {
			clusters[*d.ClusterID] = true
		}
	}
	return domain.CorpusSnapshot{Documents: len(m.docs), Chunks: len(m.chunks), Clusters: len(clusters)}, nil
}

func (m *mockDocStore) add(docs ...domain.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range docs {
		d := docs[i]
		m.docs[d.ID] = &d
		m.order = append(m.order, d.ID)
	}
}

// mockTagStore implements driven.TagStore in memory.
type mockTagStore struct {
	mu     sync.Mutex
	tags   []domain.Tag
	addErr error
}

func (m *mockTagStore) AddTags(_ context.Context, tags []domain.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.tags = append(m.tags, tags...)
	return nil
}

func (m *mockTagStore) ListByDocument(_ context.Context, documentID string) ([]domain.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Tag
	for _, t := range m.tags {
		if t.DocumentID == documentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTagStore) TopKeywords(_ context.Context, limit int) ([]domain.TagCount, error) {
	return m.rank(nil, limit), nil
}

func (m *mockTagStore) TopKeywordsFor(_ context.Context, ids []string, limit int) ([]domain.TagCount, error) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return m.rank(set, limit), nil
}

func (m *mockTagStore) DocumentIDsByKeyword(_ context.Context, keyword string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, t := range m.tags {
		if t.Keyword == keyword && !seen[t.DocumentID] {
			seen[t.DocumentID] = true
			out = append(out, t.DocumentID)
		}
	}
	return out, nil
}

func (m *mockTagStore) rank(only map[string]bool, limit int) []domain.TagCount {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := make(map[string]map[string]bool)
	for _, t := range m.tags {
		if only != nil && !only[t.DocumentID] {
			continue
		}
		if docs[t.Keyword] == nil {
			docs[t.Keyword] = make(map[string]bool)
		}
		docs[t.Keyword][t.DocumentID] = true
	}
	out := make([]domain.TagCount, 0, len(docs))
	for k, ids := range docs {
		out = append(out, domain.TagCount{Keyword: k, Count: len(ids)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// mockClusterStore implements driven.ClusterStore and writes assignments
// back into the document store.
type mockClusterStore struct {
	docs        *mockDocStore
	clusters    []domain.Cluster
	assignments map[string]int
	replaceErr  error
	replaced    int
}

func (m *mockClusterStore) ReplaceClusters(_ context.Context, clusters []domain.Cluster, assignments map[string]int) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaced++
	m.clusters = clusters
	m.assignments = assignments
	if m.docs != nil {
		m.docs.mu.Lock()
		for id, d := range m.docs.docs {
			if cid, ok := assignments[id]; ok {
				d.ClusterID = &cid
			} else {
				d.ClusterID = nil
			}
		}
		m.docs.mu.Unlock()
	}
	return nil
}

func (m *mockClusterStore) ListClusters(_ context.Context) ([]domain.Cluster, error) {
	return m.clusters, nil
}

func (m *mockClusterStore) FindByLabel(_ context.Context, label string) (*domain.Cluster, error) {
	for i := range m.clusters {
		if m.clusters[i].Label == label {
			return &m.clusters[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockClusterStore) DocumentIDsByCluster(_ context.Context, clusterID int) ([]string, error) {
	var out []string
	for id, cid := range m.assignments {
		if cid == clusterID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// --- Vectors and embeddings ---

// mockVectorStore implements driven.VectorStore with a brute-force scan.
type mockVectorStore struct {
	mu        sync.Mutex
	records   map[string]domain.VectorRecord
	dims      int
	upsertErr error
	searchErr error
}

func newMockVectorStore(dims int) *mockVectorStore {
	return &mockVectorStore{records: make(map[string]domain.VectorRecord), dims: dims}
}

func (m *mockVectorStore) Upsert(ctx context.Context, rec domain.VectorRecord) error {
	return m.UpsertBatch(ctx, []domain.VectorRecord{rec})
}

func (m *mockVectorStore) UpsertBatch(_ context.Context, recs []domain.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, r := range recs {
		if len(r.Vector) != m.dims {
			return domain.ErrDimensionMismatch
		}
		m.records[r.ID] = r
	}
	return nil
}

func (m *mockVectorStore) Search(
	_ context.Context, query []float32, k int, filter *domain.VectorFilter,
) ([]domain.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	allowed := make(map[string]bool)
	if filter != nil {
		for _, id := range filter.DocumentIDs {
			allowed[id] = true
		}
	}
	var hits []domain.VectorHit
	for _, r := range m.records {
		if filter != nil {
			if len(allowed) > 0 && !allowed[r.Payload.DocumentID] {
				continue
			}
			if filter.SourceType != "" && filter.SourceType != r.Payload.SourceType {
				continue
			}
		}
		hits = append(hits, domain.VectorHit{ID: r.ID, Score: cosine(query, r.Vector), Payload: r.Payload})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockVectorStore) Delete(_ context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

func (m *mockVectorStore) Has(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok, nil
}

func (m *mockVectorStore) IDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockVectorStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *mockVectorStore) Dimensions() int { return m.dims }

func (m *mockVectorStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// mockEmbeddingService returns fixed vectors per text, or a default.
type mockEmbeddingService struct {
	mu        sync.Mutex
	vectors   map[string][]float32
	embedding []float32
	embedErr  error
	batchErr  error
	calls     int
	batched   int
}

func (m *mockEmbeddingService) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return m.embedding
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batched += len(texts)
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int { return len(m.embedding) }

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockLLMService records prompts and returns a canned answer.
type mockLLMService struct {
	answer   string
	err      error
	prompts  []string
	messages []driven.ChatMessage
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.answer, m.err
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.messages = messages
	return m.answer, m.err
}

func (m *mockLLMService) Summarise(_ context.Context, content string, _ int) (string, error) {
	return m.answer, m.err
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }

func (m *mockLLMService) Ping(_ context.Context) error { return nil }

func (m *mockLLMService) Close() error { return nil }

// --- Crypto, blobs and files ---

// mockCipher reverses nothing; it prefixes plaintext so tests can see sealing.
type mockCipher struct {
	locked bool
}

func (m *mockCipher) Encrypt(p []byte) ([]byte, error) {
	if m.locked {
		return nil, domain.ErrLocked
	}
	return append([]byte("sealed:"), p...), nil
}

func (m *mockCipher) Decrypt(t []byte) ([]byte, error) {
	if m.locked {
		return nil, domain.ErrLocked
	}
	if len(t) < 7 || string(t[:7]) != "sealed:" {
		return nil, domain.ErrInvalidCiphertext
	}
	return t[7:], nil
}

func (m *mockCipher) EncryptString(p string) (string, error) {
	b, err := m.Encrypt([]byte(p))
	return string(b), err
}

func (m *mockCipher) DecryptString(t string) (string, error) {
	b, err := m.Decrypt([]byte(t))
	return string(b), err
}

func (m *mockCipher) IsUnlocked() bool { return !m.locked }

// mockBlobStore implements driven.BlobStore in memory.
type mockBlobStore struct {
	mu         sync.Mutex
	files      map[string][]byte
	embeddings map[string][]float32
	gets       int
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{files: make(map[string][]byte), embeddings: make(map[string][]float32)}
}

func (m *mockBlobStore) PutFile(id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[id] = data
	return nil
}

func (m *mockBlobStore) GetFile(id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.files[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (m *mockBlobStore) PutEmbedding(key string, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddings[key] = vec
	return nil
}

func (m *mockBlobStore) GetEmbedding(key string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.embeddings[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *mockBlobStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, id)
	return nil
}

func (m *mockBlobStore) Hash(data []byte) string {
	return "hash-" + string(data)
}

// mockFileReader serves files from a map.
type mockFileReader struct {
	files map[string][]byte
}

func (m *mockFileReader) ReadFile(path string) ([]byte, *domain.FileMeta, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, nil, errors.New("open " + path + ": no such file or directory")
	}
	return data, &domain.FileMeta{Size: int64(len(data)), Owner: "tester"}, nil
}

// --- Chat, projects and accounts ---

type mockChatStore struct {
	messages []domain.ChatMessage
}

func (m *mockChatStore) AppendMessage(_ context.Context, msg *domain.ChatMessage) error {
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockChatStore) RecentMessages(_ context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type mockProjectStore struct {
	projects map[string]domain.Project
	items    map[string]domain.ChecklistItem
}

func newMockProjectStore() *mockProjectStore {
	return &mockProjectStore{projects: make(map[string]domain.Project), items: make(map[string]domain.ChecklistItem)}
}

func (m *mockProjectStore) SaveProject(_ context.Context, p *domain.Project) error {
	m.projects[p.ID] = *p
	return nil
}

func (m *mockProjectStore) GetProject(_ context.Context, id string) (*domain.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *mockProjectStore) ListProjects(_ context.Context) ([]domain.Project, error) {
	out := make([]domain.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockProjectStore) DeleteProject(_ context.Context, id string) error {
	if _, ok := m.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.projects, id)
	for itemID, it := range m.items {
		if it.ProjectID == id {
			delete(m.items, itemID)
		}
	}
	return nil
}

func (m *mockProjectStore) SaveItem(_ context.Context, item *domain.ChecklistItem) error {
	m.items[item.ID] = *item
	return nil
}

func (m *mockProjectStore) ListItems(_ context.Context, projectID string) ([]domain.ChecklistItem, error) {
	var out []domain.ChecklistItem
	for _, it := range m.items {
		if it.ProjectID == projectID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

type mockCredentialStore struct {
	creds map[string]domain.EmailCredential
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{creds: make(map[string]domain.EmailCredential)}
}

func (m *mockCredentialStore) SaveCredential(_ context.Context, c *domain.EmailCredential) error {
	m.creds[c.ID] = *c
	return nil
}

func (m *mockCredentialStore) GetCredential(_ context.Context, id string) (*domain.EmailCredential, error) {
	c, ok := m.creds[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *mockCredentialStore) ListCredentials(_ context.Context) ([]domain.EmailCredential, error) {
	out := make([]domain.EmailCredential, 0, len(m.creds))
	for _, c := range m.creds {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCredentialStore) UpdateLastUID(_ context.Context, id string, uid uint32) error {
	c, ok := m.creds[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.LastUID = uid
	m.creds[id] = c
	return nil
}

func (m *mockCredentialStore) DeleteCredential(_ context.Context, id string) error {
	delete(m.creds, id)
	return nil
}

// --- Pipeline and reducer ---

// splitPipeline makes one chunk per blank-line separated paragraph.
type splitPipeline struct {
	err error
}

func (p *splitPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if p.err != nil {
		return nil, p.err
	}
	var chunks []domain.Chunk
	for i, part := range splitParagraphs(doc.Content) {
		chunks = append(chunks, domain.Chunk{
			ID:         doc.ID + "-" + string(rune('a'+i)),
			DocumentID: doc.ID,
			Content:    part,
			Position:   i,
		})
	}
	return chunks, nil
}

func splitParagraphs(s string) []string {
	var out []string
	start := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '\n' && s[i+1] == '\n' {
			if start < i {
				out = append(out, s[start:i])
			}
			start = i + 2
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// identityReducer keeps the leading components.
type identityReducer struct {
	err   error
	calls int
}

func (r *identityReducer) Name() string { return "identity" }

func (r *identityReducer) Reduce(data [][]float64, components int) ([][]float64, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	out := make([][]float64, len(data))
	for i, row := range data {
		out[i] = row[:min(components, len(row))]
	}
	return out, nil
}

// panicReducer panics inside a clustering cycle.
type panicReducer struct{}

func (panicReducer) Name() string { return "panic" }

func (panicReducer) Reduce(_ [][]float64, _ int) ([][]float64, error) {
	panic("reducer exploded")
}

// Ensure mocks implement interfaces.
var (
	_ driven.DocumentStore         = (*mockDocStore)(nil)
	_ driven.TagStore              = (*mockTagStore)(nil)
	_ driven.ClusterStore          = (*mockClusterStore)(nil)
	_ driven.VectorStore           = (*mockVectorStore)(nil)
	_ driven.EmbeddingService      = (*mockEmbeddingService)(nil)
	_ driven.LLMService            = (*mockLLMService)(nil)
	_ driven.Cipher                = (*mockCipher)(nil)
	_ driven.BlobStore             = (*mockBlobStore)(nil)
	_ driven.FileReader            = (*mockFileReader)(nil)
	_ driven.ChatStore             = (*mockChatStore)(nil)
	_ driven.ProjectStore          = (*mockProjectStore)(nil)
	_ driven.EmailCredentialStore  = (*mockCredentialStore)(nil)
	_ driven.PostProcessorPipeline = (*splitPipeline)(nil)
	_ driven.Reducer               = (*identityReducer)(nil)
	_ driven.Reducer               = panicReducer{}
)
