package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
)

// DefaultDebounce is how long a path must stay quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// ErrNoDirectories is returned when the watcher has nothing to watch.
var ErrNoDirectories = errors.New("no directories to watch")

// Watcher recursively watches directories and ingests files once their
// writes settle. Ingestion runs sequentially on the watcher goroutine.
type Watcher struct {
	dirs        []string
	ingester    driving.FileIngester
	debounce    time.Duration
	initialScan bool

	watcher *fsnotify.Watcher
	pending map[string]time.Time
}

// NewWatcher creates a watcher for the configured directories.
func NewWatcher(ingester driving.FileIngester, settings domain.WatchSettings) *Watcher {
	debounce := settings.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	dirs := make([]string, 0, len(settings.Directories))
	for _, d := range settings.Directories {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, expandHome(d))
		}
	}
	return &Watcher{
		dirs:        dirs,
		ingester:    ingester,
		debounce:    debounce,
		initialScan: settings.InitialScan,
		pending:     make(map[string]time.Time),
	}
}

// Name identifies the watcher as a daemon component.
func (w *Watcher) Name() string {
	return "watcher"
}

// Directories returns the absolute directories being watched.
func (w *Watcher) Directories() []string {
	return w.dirs
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.dirs) == 0 {
		return ErrNoDirectories
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := w.addTree(dir); err != nil {
			log.Printf("watcher: cannot watch %s: %v", dir, err)
			continue
		}
		log.Printf("watcher: watching %s", dir)
	}

	if w.initialScan {
		for _, dir := range w.dirs {
			w.scan(ctx, dir)
		}
	}

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event, time.Now())
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watcher: %v", err)
		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

// handleEvent queues created or written files. New directories are added
// to the watch and scanned because files may land before the watch exists.
// Removes and renames are ignored; stored documents are immutable.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event, now time.Time) {
	if w.skip(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addTree(event.Name); err != nil {
				log.Printf("watcher: cannot watch %s: %v", event.Name, err)
			}
			w.scan(ctx, event.Name)
		}
		return
	}
	if info.Mode().IsRegular() {
		w.pending[event.Name] = now
	}
}

// flush ingests pending paths that have been quiet for the debounce period,
// oldest first.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	var due []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			due = append(due, path)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return w.pending[due[i]].Before(w.pending[due[j]])
	})

	for _, path := range due {
		delete(w.pending, path)
		if ctx.Err() != nil {
			return
		}
		w.ingest(ctx, path)
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	res, err := w.ingester.IngestFile(ctx, path)
	switch {
	case err != nil:
		log.Printf("watcher: ingest %s: %v", path, err)
	case res.Status == domain.IngestCreated:
		log.Printf("watcher: ingested %s as %s", path, res.DocumentID)
	default:
		log.Printf("watcher: %s %s %s", path, res.Status, res.Reason)
	}
}

// skip reports whether path is hidden relative to its watched root.
func (w *Watcher) skip(path string) bool {
	for _, dir := range w.dirs {
		rel, err := filepath.Rel(dir, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return isHidden(rel)
		}
	}
	return isHidden(filepath.Base(path))
}

// addTree adds dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if w.watcher != nil {
			if err := w.watcher.Add(path); err != nil {
				log.Printf("watcher: add %s: %v", path, err)
			}
		}
		return nil
	})
}

// scan ingests every non-hidden regular file below dir.
func (w *Watcher) scan(ctx context.Context, dir string) {
	for _, path := range ListFiles(dir) {
		if ctx.Err() != nil {
			return
		}
		w.ingest(ctx, path)
	}
}

// ListFiles returns the non-hidden regular files below dir in walk order.
func ListFiles(dir string) []string {
	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	}) {
		if part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// expandHome resolves a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
