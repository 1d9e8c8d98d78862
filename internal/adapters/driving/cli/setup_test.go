package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promethean-light/internal/app"
	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/workspace"
)

// testHome returns an empty data directory and lowers the KDF cost.
func testHome(t *testing.T) string {
	t.Helper()
	t.Setenv(app.EnvPassphrase, "")
	t.Setenv(workspace.EnvHome, "")
	t.Setenv(workspace.EnvDatabase, "")
	t.Setenv("PROMETHEAN_EMBED_PROVIDER", "hashing")
	t.Setenv("PROMETHEAN_LLM_PROVIDER", "")

	prev := kdfIterations
	kdfIterations = 1000
	t.Cleanup(func() { kdfIterations = prev })
	return t.TempDir()
}

func TestSetupCmd(t *testing.T) {
	home := testHome(t)

	out, err := execute(t, "secret\nsecret\n", "--home", home, "setup")

	require.NoError(t, err)
	assert.Contains(t, out, "New passphrase for default: ")
	assert.Contains(t, out, "Database default is ready.")
	assert.Nil(t, config)
	assert.Nil(t, settingsService)

	_, err = execute(t, "again\nagain\n", "--home", home, "setup")
	assert.ErrorIs(t, err, domain.ErrAlreadySetUp)
}

func TestSetupCmd_Mismatch(t *testing.T) {
	home := testHome(t)

	_, err := execute(t, "secret\nsecrit\n", "--home", home, "setup")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match")
}

func TestSetupCmd_Empty(t *testing.T) {
	home := testHome(t)

	_, err := execute(t, "\n\n", "--home", home, "setup")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be empty")
}

func TestSetupCmd_FromEnvironment(t *testing.T) {
	home := testHome(t)
	t.Setenv(app.EnvPassphrase, "secret")

	out, err := execute(t, "", "--home", home, "setup")

	require.NoError(t, err)
	assert.NotContains(t, out, "New passphrase")
}

func TestInitAndListDBs(t *testing.T) {
	home := testHome(t)

	out, err := execute(t, "pw\npw\n", "--home", home, "init", "work")
	require.NoError(t, err)
	assert.Contains(t, out, "Created database work")
	assert.Contains(t, out, "Database work is ready.")

	_, err = execute(t, "pw\npw\n", "--home", home, "init", "work")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = execute(t, "", "--home", home, "init", "../escape")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	out, err = execute(t, "", "--home", home, "--db", "work", "list-dbs")
	require.NoError(t, err)
	assert.Contains(t, out, "* work (ready)")
}

func TestListDBs_Empty(t *testing.T) {
	home := testHome(t)

	out, err := execute(t, "", "--home", home, "list-dbs")

	require.NoError(t, err)
	assert.Contains(t, out, "No databases.")
}

func TestUnlock_NotSetUp(t *testing.T) {
	home := testHome(t)
	t.Setenv(app.EnvPassphrase, "secret")

	_, err := execute(t, "", "--home", home, "stats")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotSetUp)
	assert.Contains(t, err.Error(), "promethean setup")
}

func TestUnlock_UnknownDatabase(t *testing.T) {
	home := testHome(t)

	_, err := execute(t, "", "--home", home, "--db", "missing", "stats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "promethean init")
}

func TestUnlock_WrongPassphrase(t *testing.T) {
	home := testHome(t)
	_, err := execute(t, "secret\nsecret\n", "--home", home, "setup")
	require.NoError(t, err)

	out, err := execute(t, "wrong\n", "--home", home, "stats")

	require.Error(t, err)
	assert.Contains(t, out, "Passphrase for default: ")
	assert.EqualError(t, err, "wrong passphrase")
	assert.Nil(t, opened)
}

func TestEndToEnd_AddAskStats(t *testing.T) {
	home := testHome(t)
	_, err := execute(t, "secret\nsecret\n", "--home", home, "setup")
	require.NoError(t, err)
	t.Setenv(app.EnvPassphrase, "secret")

	out, err := execute(t, "", "--home", home, "add", "Quarterly revenue grew on strong subscription sales.")
	require.NoError(t, err)
	assert.Contains(t, out, "added")
	assert.Nil(t, opened)
	assert.Nil(t, searchService)

	out, err = execute(t, "", "--home", home, "ask", "quarterly revenue")
	require.NoError(t, err)
	assert.Contains(t, out, "subscription sales")

	out, err = execute(t, "", "--home", home, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents:  1")
}
