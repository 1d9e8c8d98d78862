package file

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves LLM prompt templates from <dir>/<name>.txt. Missing
// files, and edited files whose placeholders no longer line up with the
// built-in template, fall back to the built-in template.
type PromptStore struct {
	dir string

	seed    sync.Once
	seedErr error

	mu    sync.RWMutex
	cache map[string]string
}

// verbPattern matches fmt verbs, skipping escaped percent signs.
var verbPattern = regexp.MustCompile(`%[^%]`)

//nolint:lll // prompt text
var defaultPrompts = map[string]string{
	driven.PromptSummarise: `Summarise the following content in %d characters or less.
Be concise and capture the key points.

Content:
%s

Summary:`,

	driven.PromptChatSystem: `You are Promethean Light, a private assistant over the user's own notes, files and email.
Answer only from the excerpts below. If they do not contain the answer, say so.
Cite sources by their path or address in square brackets.

Excerpts:
%s`,

	driven.PromptClusterSummary: `The following excerpts all belong to the group "%s" in a personal knowledge base.
Describe in two or three sentences what this group is about and what kinds of documents it holds.

Excerpts:
%s

Description:`,
}

const promptsReadme = `# Promethean Light Prompts

Templates used by chat and group summaries. Edit a file to change the
behaviour; the daemon picks changes up on restart.

- ` + "`summarise.txt`" + ` - document summaries (%d max length, %s content)
- ` + "`chat_system.txt`" + ` - chat system prompt (%s retrieved excerpts)
- ` + "`cluster_summary.txt`" + ` - group descriptions (%s name, %s excerpts)

Keep the placeholders in the same order. A file with a different number of
placeholders is ignored in favour of the built-in template.
`

// NewPromptStore creates a prompt store rooted at dir, which defaults to
// ~/.promethean/prompts. Nothing touches the disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".promethean", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the named template.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := defaultPrompts[name]
	if !known {
		return "", fmt.Errorf("unknown prompt %q", name)
	}

	s.seed.Do(s.seedDefaults)
	if s.seedErr != nil {
		return builtin, nil
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt = s.read(name, builtin)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached templates so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// read loads a user template, returning builtin when the file is missing
// or its placeholder count differs.
func (s *PromptStore) read(name, builtin string) string {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return builtin
	}
	prompt := strings.TrimSpace(string(data))
	if want, got := countVerbs(builtin), countVerbs(prompt); want != got {
		log.Printf("prompts: %s has %d placeholders, want %d; using built-in template", s.path(name), got, want)
		return builtin
	}
	return prompt
}

// seedDefaults writes any missing template files and the README. Existing
// files are never overwritten.
func (s *PromptStore) seedDefaults() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	files := map[string]string{"README.md": promptsReadme}
	for name, content := range defaultPrompts {
		files[name+".txt"] = content
	}
	for name, content := range files {
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			s.seedErr = fmt.Errorf("write %s: %w", name, err)
			return
		}
	}
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func countVerbs(tmpl string) int {
	return len(verbPattern.FindAllString(strings.ReplaceAll(tmpl, "%%", ""), -1))
}
