package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

// createTestDocument inserts a text document with the given content.
func createTestDocument(t *testing.T, store *Store, content string) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		ID:         uuid.NewString(),
		Source:     domain.DefaultTextSource,
		SourceType: domain.SourceTypeText,
		MIMEType:   "text/plain",
		Content:    content,
	}
	require.NoError(t, store.DocumentStore().SaveDocument(context.Background(), doc))
	return doc
}

func TestNewStore_EmptyDir(t *testing.T) {
	_, err := NewStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	createTestDocument(t, store, "persisted")
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	counts, err := reopened.DocumentStore().Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Documents)
}

// ==================== DocumentStore Tests ====================

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	mtime := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	doc := &domain.Document{
		ID:          "doc-1",
		Source:      "/notes/plan.md",
		SourceType:  domain.SourceTypeFile,
		MIMEType:    "text/markdown",
		ContentHash: "abc123",
		Content:     "# Plan",
		File:        &domain.FileMeta{ModTime: mtime, Size: 6, Owner: "1000"},
	}
	require.NoError(t, docs.SaveDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Source, got.Source)
	assert.Equal(t, domain.SourceTypeFile, got.SourceType)
	assert.Equal(t, "abc123", got.ContentHash)
	assert.Nil(t, got.ClusterID)
	require.NotNil(t, got.File)
	assert.Equal(t, int64(6), got.File.Size)
	assert.True(t, mtime.Equal(got.File.ModTime))
	assert.False(t, got.CreatedAt.IsZero())

	byHash, err := docs.FindByContentHash(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", byHash.ID)
}

func TestDocumentStore_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	_, err := docs.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = docs.FindByContentHash(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = docs.FindByContentHash(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = docs.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_DuplicateHash(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	first := &domain.Document{ID: "a", Source: "/a", SourceType: domain.SourceTypeFile, ContentHash: "h", Content: "x"}
	second := &domain.Document{ID: "b", Source: "/b", SourceType: domain.SourceTypeFile, ContentHash: "h", Content: "x"}
	require.NoError(t, docs.SaveDocument(ctx, first))
	assert.ErrorIs(t, docs.SaveDocument(ctx, second), domain.ErrAlreadyExists)
}

func TestDocumentStore_NullHashesDoNotCollide(t *testing.T) {
	store := setupTestStore(t)
	createTestDocument(t, store, "one")
	createTestDocument(t, store, "two")

	counts, err := store.DocumentStore().Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Documents)
}

func TestDocumentStore_Chunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()
	doc := createTestDocument(t, store, "alpha\n\nbeta")

	chunks := []domain.Chunk{
		{ID: "c2", DocumentID: doc.ID, Position: 1, Content: "beta", Start: 7, End: 11},
		{ID: "c1", DocumentID: doc.ID, Position: 0, Content: "alpha", Start: 0, End: 5},
	}
	require.NoError(t, docs.SaveChunks(ctx, chunks))
	require.NoError(t, docs.SaveChunks(ctx, nil))

	got, err := docs.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].Content)
	assert.Equal(t, 7, got[1].Start)

	one, err := docs.GetChunk(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, 11, one.End)

	exists, err := docs.ChunkExists(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = docs.ChunkExists(ctx, "zz")
	require.NoError(t, err)
	assert.False(t, exists)

	page, err := docs.ListChunksAfter(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c1", page[0].ID)
	page, err = docs.ListChunksAfter(ctx, "c1", 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c2", page[0].ID)
}

func TestDocumentStore_ChunkRequiresDocument(t *testing.T) {
	store := setupTestStore(t)
	err := store.DocumentStore().SaveChunks(context.Background(), []domain.Chunk{
		{ID: "orphan", DocumentID: "missing", Content: "x"},
	})
	assert.Error(t, err)
}

func TestDocumentStore_SaveDocumentWithChunks_Atomic(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	doc := &domain.Document{
		ID: "doc-1", Source: "/notes/a.txt", SourceType: domain.SourceTypeFile,
		ContentHash: "h1", Content: "alpha beta",
	}
	bad := []domain.Chunk{
		{ID: "doc-1-0", DocumentID: "doc-1", Content: "alpha"},
		{ID: "doc-1-1", DocumentID: "missing", Content: "beta"},
	}
	require.Error(t, docs.SaveDocumentWithChunks(ctx, doc, bad))

	_, err := docs.FindByContentHash(ctx, "h1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	exists, err := docs.ChunkExists(ctx, "doc-1-0")
	require.NoError(t, err)
	assert.False(t, exists)

	good := []domain.Chunk{
		{ID: "doc-1-0", DocumentID: "doc-1", Content: "alpha"},
		{ID: "doc-1-1", DocumentID: "doc-1", Position: 1, Content: "beta"},
	}
	require.NoError(t, docs.SaveDocumentWithChunks(ctx, doc, good))

	found, err := docs.FindByContentHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", found.ID)
	exists, err = docs.ChunkExists(ctx, "doc-1-1")
	require.NoError(t, err)
	assert.True(t, exists)

	again := &domain.Document{ID: "doc-2", Source: "/b", SourceType: domain.SourceTypeFile, ContentHash: "h1", Content: "x"}
	assert.ErrorIs(t, docs.SaveDocumentWithChunks(ctx, again, nil), domain.ErrAlreadyExists)
}

func TestDocumentStore_ListAndSample(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	base := time.Now().UTC().Add(-time.Hour)
	for i, content := range []string{"first", "second", "third"} {
		doc := &domain.Document{
			ID: uuid.NewString(), Source: "stdin", SourceType: domain.SourceTypeText,
			Content: content, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, docs.SaveDocument(ctx, doc))
	}

	recent, err := docs.ListDocuments(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Content)

	all, err := docs.ListDocuments(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	sample, err := docs.SampleDocuments(ctx, 2)
	require.NoError(t, err)
	require.Len(t, sample, 2)
	assert.Equal(t, "first", sample[0].Content)

	byIDs, err := docs.DocumentsByIDs(ctx, []string{sample[1].ID, "missing"})
	require.NoError(t, err)
	require.Len(t, byIDs, 1)
	assert.Equal(t, "second", byIDs[0].Content)

	none, err := docs.DocumentsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// ==================== TagStore Tests ====================

func TestTagStore_AppendOnly(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	tags := store.TagStore()
	a := createTestDocument(t, store, "a")
	b := createTestDocument(t, store, "b")

	require.NoError(t, tags.AddTags(ctx, []domain.Tag{
		{DocumentID: a.ID, Keyword: "finance", Confidence: 0.9},
		{DocumentID: a.ID, Keyword: "budget", Confidence: 1},
	}))
	require.NoError(t, tags.AddTags(ctx, []domain.Tag{
		{DocumentID: a.ID, Keyword: "finance", Confidence: 0.9},
		{DocumentID: b.ID, Keyword: "finance", Confidence: 0.9},
	}))

	byDoc, err := tags.ListByDocument(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, byDoc, 3)
	assert.Equal(t, "budget", byDoc[0].Keyword)

	top, err := tags.TopKeywords(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, domain.TagCount{Keyword: "finance", Count: 2}, top[0])

	forB, err := tags.TopKeywordsFor(ctx, []string{b.ID}, 5)
	require.NoError(t, err)
	require.Len(t, forB, 1)
	assert.Equal(t, "finance", forB[0].Keyword)

	ids, err := tags.DocumentIDsByKeyword(ctx, "finance")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	counts, err := store.DocumentStore().Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Tags)
}

// ==================== ClusterStore Tests ====================

func TestClusterStore_ReplaceClusters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	clusters := store.ClusterStore()
	docs := store.DocumentStore()

	a := createTestDocument(t, store, "a")
	b := createTestDocument(t, store, "b")
	c := createTestDocument(t, store, "c")

	require.NoError(t, clusters.ReplaceClusters(ctx, []domain.Cluster{
		{ID: 0, Label: "revenue budget forecast", DocumentCount: 2},
		{ID: 1, Label: "kubernetes cluster networking", DocumentCount: 1},
	}, map[string]int{a.ID: 0, b.ID: 0, c.ID: 1}))

	list, err := clusters.ListClusters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "revenue budget forecast", list[0].Label)

	got, err := docs.GetDocument(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ClusterID)
	assert.Equal(t, 0, *got.ClusterID)

	// Second run replaces everything; c becomes noise.
	require.NoError(t, clusters.ReplaceClusters(ctx, []domain.Cluster{
		{ID: 0, Label: "budget", DocumentCount: 1},
	}, map[string]int{b.ID: 0}))

	list, err = clusters.ListClusters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err = docs.GetDocument(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ClusterID)

	members, err := clusters.DocumentIDsByCluster(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, members)

	found, err := clusters.FindByLabel(ctx, "budget")
	require.NoError(t, err)
	assert.Equal(t, 0, found.ID)
	_, err = clusters.FindByLabel(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClusterStore_ReplaceWithNothing(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	a := createTestDocument(t, store, "a")

	require.NoError(t, store.ClusterStore().ReplaceClusters(ctx,
		[]domain.Cluster{{ID: 0, Label: "x", DocumentCount: 1}}, map[string]int{a.ID: 0}))
	require.NoError(t, store.ClusterStore().ReplaceClusters(ctx, nil, nil))

	counts, err := store.DocumentStore().Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Clusters)
}

// ==================== EmailCredentialStore Tests ====================

func TestEmailCredentialStore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	creds := store.EmailCredentialStore()

	cred := &domain.EmailCredential{
		ID: "acct", Address: "me@example.com", Server: "imap.example.com", Port: 993,
		Username: "me", EncryptedPassword: "sealed", Mailbox: "INBOX", UseTLS: true,
	}
	require.NoError(t, creds.SaveCredential(ctx, cred))
	require.NoError(t, creds.UpdateLastUID(ctx, "acct", 42))

	got, err := creds.GetCredential(ctx, "acct")
	require.NoError(t, err)
	assert.Equal(t, uint32(42), got.LastUID)
	assert.True(t, got.UseTLS)
	assert.Equal(t, "sealed", got.EncryptedPassword)

	list, err := creds.ListCredentials(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	dup := *cred
	dup.ID = "other"
	assert.ErrorIs(t, creds.SaveCredential(ctx, &dup), domain.ErrAlreadyExists)

	assert.ErrorIs(t, creds.UpdateLastUID(ctx, "missing", 1), domain.ErrNotFound)

	require.NoError(t, creds.DeleteCredential(ctx, "acct"))
	_, err = creds.GetCredential(ctx, "acct")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Project and Chat Tests ====================

func TestProjectStore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	projects := store.ProjectStore()

	p := &domain.Project{ID: "p1", Name: "Launch", Description: "Q3 launch"}
	require.NoError(t, projects.SaveProject(ctx, p))
	require.NoError(t, projects.SaveItem(ctx, &domain.ChecklistItem{ID: "i2", ProjectID: "p1", Text: "ship", Position: 1}))
	require.NoError(t, projects.SaveItem(ctx, &domain.ChecklistItem{ID: "i1", ProjectID: "p1", Text: "build", Position: 0, Done: true}))

	items, err := projects.ListItems(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "build", items[0].Text)
	assert.True(t, items[0].Done)

	assert.ErrorIs(t, projects.SaveProject(ctx, &domain.Project{ID: "p2", Name: "Launch"}), domain.ErrAlreadyExists)

	list, err := projects.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, projects.DeleteProject(ctx, "p1"))
	_, err = projects.GetProject(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, projects.DeleteProject(ctx, "p1"), domain.ErrNotFound)

	items, err = projects.ListItems(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestChatStore_RecentMessages(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	chat := store.ChatStore()

	for i, text := range []string{"one", "two", "three", "four"} {
		role := domain.ChatRoleUser
		if i%2 == 1 {
			role = domain.ChatRoleAssistant
		}
		require.NoError(t, chat.AppendMessage(ctx, &domain.ChatMessage{
			ID: uuid.NewString(), SessionID: "s", Role: role, Content: text,
		}))
	}
	require.NoError(t, chat.AppendMessage(ctx, &domain.ChatMessage{
		ID: uuid.NewString(), SessionID: "other", Role: domain.ChatRoleUser, Content: "elsewhere",
	}))

	msgs, err := chat.RecentMessages(ctx, "s", 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "two", msgs[0].Content)
	assert.Equal(t, "four", msgs[2].Content)
	assert.Equal(t, domain.ChatRoleAssistant, msgs[2].Role)

	assert.ErrorIs(t, chat.AppendMessage(ctx, &domain.ChatMessage{}), domain.ErrInvalidInput)
}
