package file

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
)

// Ensure EnvOverlay implements the interface.
var _ driven.ConfigStore = (*EnvOverlay)(nil)

// DotEnvFile is the env file name read from the home and working directories.
const DotEnvFile = ".env"

// EnvBindings maps config keys to the environment variables that override them.
var EnvBindings = map[string]string{
	"embedding.provider":        "PROMETHEAN_EMBED_PROVIDER",
	"embedding.model":           "PROMETHEAN_EMBED_MODEL",
	"embedding.api_key":         "PROMETHEAN_EMBED_API_KEY",
	"embedding.base_url":        "OLLAMA_HOST",
	"llm.base_url":              "OLLAMA_HOST",
	"llm.provider":              "PROMETHEAN_LLM_PROVIDER",
	"llm.model":                 "PROMETHEAN_LLM_MODEL",
	"llm.api_key":               "PROMETHEAN_LLM_API_KEY",
	"ingest.chunk_size":         "PROMETHEAN_CHUNK_SIZE",
	"ingest.text_threshold":     "PROMETHEAN_TEXT_THRESHOLD",
	"ingest.email_threshold":    "PROMETHEAN_EMAIL_THRESHOLD",
	"ingest.extract_structured": "PROMETHEAN_EXTRACT_TEXT",
	"organizer.interval":        "PROMETHEAN_ML_INTERVAL",
	"email.poll_interval":       "PROMETHEAN_EMAIL_POLL",
	"watch.directories":         "PROMETHEAN_WATCH_DIRS",
	"api.addr":                  "PROMETHEAN_API_ADDR",
	"mcp.addr":                  "PROMETHEAN_MCP_ADDR",
}

// LoadDotEnv loads .env files from each directory that has one. Variables
// already present in the process environment are never overridden.
func LoadDotEnv(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, DotEnvFile)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}

// EnvOverlay reads environment overrides ahead of a base store. Writes go
// to the base store; overrides are never persisted.
type EnvOverlay struct {
	base     driven.ConfigStore
	bindings map[string]string
	lookup   func(string) (string, bool)
}

// NewEnvOverlay wraps base with EnvBindings and os.LookupEnv.
func NewEnvOverlay(base driven.ConfigStore) *EnvOverlay {
	return &EnvOverlay{base: base, bindings: EnvBindings, lookup: os.LookupEnv}
}

func (o *EnvOverlay) env(key string) (string, bool) {
	name, ok := o.bindings[key]
	if !ok {
		return "", false
	}
	val, ok := o.lookup(name)
	if !ok || strings.TrimSpace(val) == "" {
		return "", false
	}
	val = strings.TrimSpace(val)
	if name == "OLLAMA_HOST" {
		// OLLAMA_HOST is ignored once another provider is selected.
		section, _, _ := strings.Cut(key, ".")
		if p := o.GetString(section + ".provider"); p != "" && p != "ollama" {
			return "", false
		}
		if !strings.Contains(val, "://") {
			val = "http://" + val
		}
	}
	return val, true
}

// Get returns the override as a string when set.
func (o *EnvOverlay) Get(key string) (any, bool) {
	if v, ok := o.env(key); ok {
		return v, true
	}
	return o.base.Get(key)
}

// GetString retrieves a string configuration value.
func (o *EnvOverlay) GetString(key string) string {
	if v, ok := o.env(key); ok {
		return v
	}
	return o.base.GetString(key)
}

// GetInt retrieves an integer configuration value.
func (o *EnvOverlay) GetInt(key string) int {
	if v, ok := o.env(key); ok {
		return toInt(v)
	}
	return o.base.GetInt(key)
}

// GetFloat64 retrieves a floating point configuration value.
func (o *EnvOverlay) GetFloat64(key string) float64 {
	if v, ok := o.env(key); ok {
		return toFloat(v)
	}
	return o.base.GetFloat64(key)
}

// GetBool retrieves a boolean configuration value.
func (o *EnvOverlay) GetBool(key string) bool {
	if v, ok := o.env(key); ok {
		return toBool(v)
	}
	return o.base.GetBool(key)
}

// GetDuration retrieves a duration configuration value.
func (o *EnvOverlay) GetDuration(key string) time.Duration {
	if v, ok := o.env(key); ok {
		return toDuration(v)
	}
	return o.base.GetDuration(key)
}

// GetStringSlice splits overrides on the OS path list separator or commas.
func (o *EnvOverlay) GetStringSlice(key string) []string {
	if v, ok := o.env(key); ok {
		parts := strings.FieldsFunc(v, func(r rune) bool {
			return r == os.PathListSeparator || r == ','
		})
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return o.base.GetStringSlice(key)
}

// Set stores a value in the base store.
func (o *EnvOverlay) Set(key string, value any) error { return o.base.Set(key, value) }

// Save persists the base store.
func (o *EnvOverlay) Save() error { return o.base.Save() }

// Load reloads the base store.
func (o *EnvOverlay) Load() error { return o.base.Load() }

// Path returns the base store path.
func (o *EnvOverlay) Path() string { return o.base.Path() }
