package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOverlay(t *testing.T, env map[string]string) (*EnvOverlay, *ConfigStore) {
	t.Helper()
	base := newTestConfigStore(t)
	o := NewEnvOverlay(base)
	o.lookup = func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
	return o, base
}

func TestEnvOverlay_OverridesBase(t *testing.T) {
	o, base := newTestOverlay(t, map[string]string{
		"PROMETHEAN_EMBED_PROVIDER":  "ollama",
		"PROMETHEAN_CHUNK_SIZE":      "800",
		"PROMETHEAN_TEXT_THRESHOLD":  "0.9",
		"PROMETHEAN_ML_INTERVAL":     "10m",
		"PROMETHEAN_EMAIL_POLL":      "30",
		"PROMETHEAN_WATCH_DIRS":      "/a" + string(os.PathListSeparator) + "/b, /c",
		"OLLAMA_HOST":                "gpu-box:11434",
		"PROMETHEAN_EMAIL_THRESHOLD": "  ",
	})
	require.NoError(t, base.Set("embedding.provider", "hashing"))
	require.NoError(t, base.Set("ingest.email_threshold", 0.97))

	assert.Equal(t, "ollama", o.GetString("embedding.provider"))
	assert.Equal(t, 800, o.GetInt("ingest.chunk_size"))
	assert.InDelta(t, 0.9, o.GetFloat64("ingest.text_threshold"), 1e-9)
	assert.Equal(t, 10*time.Minute, o.GetDuration("organizer.interval"))
	assert.Equal(t, 30*time.Second, o.GetDuration("email.poll_interval"))
	assert.Equal(t, []string{"/a", "/b", "/c"}, o.GetStringSlice("watch.directories"))
	assert.Equal(t, "http://gpu-box:11434", o.GetString("embedding.base_url"))
	assert.Equal(t, "http://gpu-box:11434", o.GetString("llm.base_url"))

	// Blank overrides fall through to the file.
	assert.InDelta(t, 0.97, o.GetFloat64("ingest.email_threshold"), 1e-9)
}

func TestEnvOverlay_OllamaHostOnlyForOllama(t *testing.T) {
	o, base := newTestOverlay(t, map[string]string{
		"OLLAMA_HOST":             "gpu-box:11434",
		"PROMETHEAN_LLM_PROVIDER": "anthropic",
	})
	require.NoError(t, base.Set("embedding.provider", "openai"))
	require.NoError(t, base.Set("embedding.base_url", "http://localhost:1234/v1"))
	require.NoError(t, base.Set("llm.base_url", "https://api.anthropic.com"))

	assert.Equal(t, "http://localhost:1234/v1", o.GetString("embedding.base_url"))
	assert.Equal(t, "https://api.anthropic.com", o.GetString("llm.base_url"))
}

func TestEnvOverlay_WritesGoToBase(t *testing.T) {
	o, base := newTestOverlay(t, map[string]string{"PROMETHEAN_API_ADDR": "0.0.0.0:9000"})

	require.NoError(t, o.Set("api.addr", "127.0.0.1:1"))
	assert.Equal(t, "127.0.0.1:1", base.GetString("api.addr"))
	assert.Equal(t, "0.0.0.0:9000", o.GetString("api.addr"))
	assert.Equal(t, base.Path(), o.Path())
}

func TestEnvOverlay_UnboundKeysDelegate(t *testing.T) {
	o, base := newTestOverlay(t, map[string]string{})
	require.NoError(t, base.Set("organizer.top_tags", 3))
	assert.Equal(t, 3, o.GetInt("organizer.top_tags"))
	v, ok := o.Get("organizer.top_tags")
	assert.True(t, ok)
	assert.EqualValues(t, 3, v)
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("PROMETHEAN_TEST_FROM_FILE=file\nPROMETHEAN_TEST_PRESET=file\n"), 0600))

	t.Setenv("PROMETHEAN_TEST_PRESET", "process")
	t.Setenv("PROMETHEAN_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("PROMETHEAN_TEST_FROM_FILE"))

	require.NoError(t, LoadDotEnv("", filepath.Join(dir, "missing"), dir))
	assert.Equal(t, "file", os.Getenv("PROMETHEAN_TEST_FROM_FILE"))
	assert.Equal(t, "process", os.Getenv("PROMETHEAN_TEST_PRESET"))
}
