package app

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv(EnvPassphrase, "")
	t.Setenv("PROMETHEAN_DB", "")
	t.Setenv("PROMETHEAN_EMBED_PROVIDER", "hashing")
	t.Setenv("PROMETHEAN_EXTRACT_TEXT", "")
	t.Setenv("PROMETHEAN_LLM_PROVIDER", "")
	cfg, err := LoadConfig(Options{Home: t.TempDir(), Iterations: 1000})
	require.NoError(t, err)
	return cfg
}

func TestOpen_NotSetUp(t *testing.T) {
	cfg := testConfig(t)

	_, err := cfg.Open(context.Background(), "secret")

	assert.ErrorIs(t, err, domain.ErrNotSetUp)
}

func TestOpen_Locked(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.Setup("secret"))

	_, err := cfg.Open(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrLocked)

	_, err = cfg.Open(context.Background(), "wrong")
	assert.ErrorIs(t, err, domain.ErrWrongPassphrase)
}

func TestOpen_PassphraseFromEnvironment(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.Setup("secret"))
	t.Setenv(EnvPassphrase, "secret")

	a, err := cfg.Open(context.Background(), "")
	require.NoError(t, err)
	assert.NoError(t, a.Close())
}

func TestOpen_IngestAndSearch(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	require.NoError(t, cfg.Setup("secret"))

	a, err := cfg.Open(ctx, "secret")
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Ingestion.IngestText(ctx, "Quarterly revenue grew on strong subscription sales.", "test")
	require.NoError(t, err)
	require.Equal(t, domain.IngestCreated, res.Status)

	again, err := a.Ingestion.IngestText(ctx, "Quarterly revenue grew on strong subscription sales.", "test")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestDuplicate, again.Status)

	results, err := a.Search.Search(ctx, "revenue subscription", domain.SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, res.DocumentID, results[0].Document.ID)

	stats, err := a.Search.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, a.AI.Dimensions, stats.Dimensions)
}

// writeDOCX writes a one-paragraph word-processing file and returns its path.
func writeDOCX(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	require.NoError(t, err)
	w, err = zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestOpen_StructuredFilesSkippedByDefault(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	require.NoError(t, cfg.Setup("secret"))
	path := writeDOCX(t, "kubernetes cluster networking configuration")

	a, err := cfg.Open(ctx, "secret")
	require.NoError(t, err)
	res, err := a.Ingestion.IngestFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestSkipped, res.Status)
	require.NoError(t, a.Close())

	t.Setenv("PROMETHEAN_EXTRACT_TEXT", "true")
	b, err := cfg.Open(ctx, "secret")
	require.NoError(t, err)
	defer b.Close()
	res, err = b.Ingestion.IngestFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestCreated, res.Status)
	doc, err := b.Store.DocumentStore().GetDocument(ctx, res.DocumentID)
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "kubernetes cluster networking configuration")
}

func TestOpen_ReopensExistingVectors(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	require.NoError(t, cfg.Setup("secret"))

	a, err := cfg.Open(ctx, "secret")
	require.NoError(t, err)
	_, err = a.Ingestion.IngestText(ctx, "Notes about the golang build pipeline.", "test")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := cfg.Open(ctx, "secret")
	require.NoError(t, err)
	defer b.Close()
	count, err := b.Vectors.Count(ctx)
	require.NoError(t, err)
	assert.Positive(t, count)
}

func TestDaemon_Components(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.Setup("secret"))
	a, err := cfg.Open(context.Background(), "secret")
	require.NoError(t, err)
	defer a.Close()

	d, err := a.Daemon()
	require.NoError(t, err)
	names := d.Components()
	assert.Contains(t, names, "api")
	assert.Contains(t, names, "imap")
	assert.Contains(t, names, "scheduler")
	assert.NotContains(t, names, "watcher")
	assert.NotContains(t, names, "mcp")

	a.Settings.API.Enabled = false
	a.Settings.MCP.Enabled = true
	a.Settings.Watch.Directories = []string{t.TempDir()}
	d, err = a.Daemon()
	require.NoError(t, err)
	names = d.Components()
	assert.NotContains(t, names, "api")
	assert.Contains(t, names, "watcher")
	assert.Contains(t, names, "mcp")
}

func TestNewReducer(t *testing.T) {
	assert.Nil(t, newReducer(domain.ReducerNone))
	assert.Equal(t, "pca", newReducer(domain.ReducerAuto).Name())
	assert.Equal(t, "pca", newReducer(domain.ReducerPCA).Name())
	assert.Equal(t, "random", newReducer(domain.ReducerRandom).Name())
}
