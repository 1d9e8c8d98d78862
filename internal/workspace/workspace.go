// Package workspace resolves the home directory and the layout of named
// databases below it.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/custodia-labs/promethean-light/internal/adapters/driven/crypto"
	"github.com/custodia-labs/promethean-light/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// Environment variables that relocate the workspace.
const (
	EnvHome     = "PROMETHEAN_HOME"
	EnvDatabase = "PROMETHEAN_DB"
)

// DefaultDatabase is used when no database is named.
const DefaultDatabase = "default"

const (
	homeDirName      = ".promethean"
	databasesDirName = "databases"
	promptsDirName   = "prompts"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// Workspace is the root of all persisted state.
type Workspace struct {
	Home string
}

// Resolve returns the workspace at home, PROMETHEAN_HOME or ~/.promethean,
// in that order.
func Resolve(home string) (*Workspace, error) {
	if home == "" {
		home = os.Getenv(EnvHome)
	}
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		home = filepath.Join(userHome, homeDirName)
	}
	abs, err := filepath.Abs(home)
	if err != nil {
		return nil, fmt.Errorf("resolve home %s: %w", home, err)
	}
	return &Workspace{Home: abs}, nil
}

// DatabaseName picks name, PROMETHEAN_DB or the default.
func DatabaseName(name string) string {
	if name != "" {
		return name
	}
	if env := os.Getenv(EnvDatabase); env != "" {
		return env
	}
	return DefaultDatabase
}

// PromptsDir holds the user-editable prompt templates.
func (w *Workspace) PromptsDir() string {
	return filepath.Join(w.Home, promptsDirName)
}

func (w *Workspace) databasesDir() string {
	return filepath.Join(w.Home, databasesDirName)
}

// Database returns the layout for name without touching the disk.
func (w *Workspace) Database(name string) (*Database, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: database name %q", domain.ErrInvalidInput, name)
	}
	return &Database{Name: name, Dir: filepath.Join(w.databasesDir(), name)}, nil
}

// Create makes the directory tree for a new database. The database is not
// usable until its passphrase is set up.
func (w *Workspace) Create(name string) (*Database, error) {
	db, err := w.Database(name)
	if err != nil {
		return nil, err
	}
	if db.Exists() {
		return nil, fmt.Errorf("%w: database %q", domain.ErrAlreadyExists, name)
	}
	if err := db.ensureDirs(); err != nil {
		return nil, err
	}
	return db, nil
}

// Open returns an existing database, creating the directory tree of the
// default database on first use.
func (w *Workspace) Open(name string) (*Database, error) {
	db, err := w.Database(name)
	if err != nil {
		return nil, err
	}
	if !db.Exists() && name != DefaultDatabase {
		return nil, fmt.Errorf("%w: database %q", domain.ErrNotFound, name)
	}
	if err := db.ensureDirs(); err != nil {
		return nil, err
	}
	return db, nil
}

// List returns the names of all databases, sorted.
func (w *Workspace) List() ([]string, error) {
	entries, err := os.ReadDir(w.databasesDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && validName.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Database is one named, independently encrypted knowledge base.
type Database struct {
	Name string
	Dir  string
}

// Exists reports whether the database directory is present.
func (d *Database) Exists() bool {
	info, err := os.Stat(d.Dir)
	return err == nil && info.IsDir()
}

// IsSetUp reports whether a passphrase has been configured.
func (d *Database) IsSetUp() bool {
	_, err := os.Stat(filepath.Join(d.Dir, crypto.SaltFile))
	return err == nil
}

// SQLitePath is the metadata database file.
func (d *Database) SQLitePath() string { return filepath.Join(d.Dir, sqlite.DatabaseFile) }

// VectorsDir holds the badger vector collection.
func (d *Database) VectorsDir() string { return filepath.Join(d.Dir, "vectors") }

// BlobsDir holds encrypted originals and cached embeddings.
func (d *Database) BlobsDir() string { return filepath.Join(d.Dir, "blobs") }

// ModelsDir is reserved for downloaded model files.
func (d *Database) ModelsDir() string { return filepath.Join(d.Dir, "models") }

// LogsDir holds the daemon log.
func (d *Database) LogsDir() string { return filepath.Join(d.Dir, "logs") }

func (d *Database) ensureDirs() error {
	for _, dir := range []string{d.Dir, d.VectorsDir(), d.BlobsDir(), d.ModelsDir(), d.LogsDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
