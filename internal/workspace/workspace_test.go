package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

func TestResolve(t *testing.T) {
	t.Run("explicit home", func(t *testing.T) {
		dir := t.TempDir()
		ws, err := Resolve(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, ws.Home)
	})

	t.Run("environment", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(EnvHome, dir)
		ws, err := Resolve("")
		require.NoError(t, err)
		assert.Equal(t, dir, ws.Home)
	})

	t.Run("user home fallback", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv(EnvHome, "")
		t.Setenv("HOME", home)
		ws, err := Resolve("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".promethean"), ws.Home)
	})
}

func TestDatabaseName(t *testing.T) {
	t.Setenv(EnvDatabase, "")
	assert.Equal(t, DefaultDatabase, DatabaseName(""))
	assert.Equal(t, "work", DatabaseName("work"))

	t.Setenv(EnvDatabase, "personal")
	assert.Equal(t, "personal", DatabaseName(""))
	assert.Equal(t, "work", DatabaseName("work"))
}

func TestDatabase_Layout(t *testing.T) {
	ws := &Workspace{Home: "/data"}
	db, err := ws.Database("work")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/data", "databases", "work"), db.Dir)
	assert.Equal(t, filepath.Join(db.Dir, "promethean.db"), db.SQLitePath())
	assert.Equal(t, filepath.Join(db.Dir, "vectors"), db.VectorsDir())
	assert.Equal(t, filepath.Join(db.Dir, "blobs"), db.BlobsDir())
	assert.Equal(t, filepath.Join(db.Dir, "models"), db.ModelsDir())
	assert.Equal(t, filepath.Join(db.Dir, "logs"), db.LogsDir())
	assert.Equal(t, filepath.Join("/data", "prompts"), ws.PromptsDir())
}

func TestDatabase_InvalidName(t *testing.T) {
	ws := &Workspace{Home: t.TempDir()}
	for _, name := range []string{"", "../etc", ".hidden", "with space", "a/b"} {
		_, err := ws.Database(name)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}
}

func TestCreateAndList(t *testing.T) {
	ws := &Workspace{Home: t.TempDir()}

	names, err := ws.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	db, err := ws.Create("work")
	require.NoError(t, err)
	assert.True(t, db.Exists())
	assert.False(t, db.IsSetUp())
	assert.DirExists(t, db.VectorsDir())
	assert.DirExists(t, db.LogsDir())

	_, err = ws.Create("work")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = ws.Create("alpha")
	require.NoError(t, err)

	names, err = ws.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "work"}, names)
}

func TestOpen(t *testing.T) {
	ws := &Workspace{Home: t.TempDir()}

	db, err := ws.Open(DefaultDatabase)
	require.NoError(t, err)
	assert.True(t, db.Exists())

	_, err = ws.Open("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIsSetUp(t *testing.T) {
	ws := &Workspace{Home: t.TempDir()}
	db, err := ws.Create("work")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(db.Dir, "salt"), []byte("x"), 0600))
	assert.True(t, db.IsSetUp())
}
