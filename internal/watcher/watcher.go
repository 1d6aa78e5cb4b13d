package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/andthens/BluePrint/internal/sif"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultPattern matches every file in the watched directory; only
// repository exports (.sif, .xml) are ever reported.
const DefaultPattern = "*"

// Watcher reports export files dropped into a directory once they have
// stopped changing.
type Watcher struct {
	fsw     *fsnotify.Watcher
	dir     string
	pattern string
	settle  time.Duration
	log     *slog.Logger
}

// New watches dir for files whose name matches pattern (doublestar syntax,
// relative to dir). A file is reported after it has seen no writes for the
// settle duration.
func New(dir, pattern string, settle time.Duration, log *slog.Logger) (*Watcher, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(abs); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}

	return &Watcher{
		fsw:     fsw,
		dir:     abs,
		pattern: pattern,
		settle:  settle,
		log:     log,
	}, nil
}

// Dir returns the absolute path of the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Existing lists matching exports already present in the directory.
func (w *Watcher) Existing() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(w.dir), w.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, m := range matches {
		if sif.IsSupportedExtension(m) {
			paths = append(paths, filepath.Join(w.dir, filepath.FromSlash(m)))
		}
	}
	return paths, nil
}

// Match reports whether path is an export covered by the pattern.
func (w *Watcher) Match(path string) bool {
	if !sif.IsSupportedExtension(path) {
		return false
	}
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(w.pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

// Run calls handle for each settled file until ctx is cancelled. handle runs
// on Run's goroutine. The underlying watcher is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, handle func(path string)) error {
	defer w.fsw.Close()

	ready := make(chan string)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			switch {
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				if !w.Match(ev.Name) {
					continue
				}
				if t, ok := pending[ev.Name]; ok {
					t.Reset(w.settle)
					continue
				}
				path := ev.Name
				pending[path] = time.AfterFunc(w.settle, func() {
					select {
					case ready <- path:
					case <-ctx.Done():
					}
				})
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				if t, ok := pending[ev.Name]; ok {
					t.Stop()
					delete(pending, ev.Name)
				}
			}

		case path := <-ready:
			if _, ok := pending[path]; !ok {
				continue
			}
			delete(pending, path)
			if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
				continue
			}
			handle(path)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "dir", w.dir, "error", err)
		}
	}
}
