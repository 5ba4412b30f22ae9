// Package watch triggers a rebuild when source files change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 500 * time.Millisecond

type Options struct {
	// Paths are directories watched recursively, or single files.
	Paths    []string
	Debounce time.Duration
	Logger   *zap.Logger
}

// Watcher coalesces bursts of file events into a single rebuild call.
type Watcher struct {
	fsw      *fsnotify.Watcher
	rebuild  func() error
	debounce time.Duration
	logger   *zap.Logger

	// dirs are watched in full; files are watched through their parent
	// directory, whose other entries are ignored.
	dirs  map[string]struct{}
	files map[string]struct{}
}

// New registers every path before returning, so changes made after New
// returns are observed once Run is called.
func New(opts Options, rebuild func() error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		dirs:     make(map[string]struct{}),
		files:    make(map[string]struct{}),
		rebuild:  rebuild,
		debounce: opts.Debounce,
		logger:   opts.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}

	for _, root := range opts.Paths {
		w.addTree(root)
	}
	return w, nil
}

func (w *Watcher) addTree(root string) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		w.logger.Info("Path not found, not watching", zap.String("path", root))
		return
	}
	if err != nil {
		w.logger.Warn("Failed to stat watch path", zap.String("path", root), zap.Error(err))
		return
	}
	if !info.IsDir() {
		w.addFile(root)
		return
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("Error walking", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				w.logger.Warn("Failed to watch", zap.String("path", path), zap.Error(err))
				return nil
			}
			w.dirs[filepath.Clean(path)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("Error during directory walk", zap.String("path", root), zap.Error(err))
	}
}

// addFile watches the parent directory of file so that editors replacing the
// file by rename keep being observed.
func (w *Watcher) addFile(file string) {
	file = filepath.Clean(file)
	if err := w.fsw.Add(filepath.Dir(file)); err != nil {
		w.logger.Warn("Failed to watch", zap.String("path", file), zap.Error(err))
		return
	}
	w.files[file] = struct{}{}
}

func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if _, ok := w.files[name]; ok {
		return true
	}
	if _, ok := w.dirs[name]; ok {
		return true
	}
	_, ok := w.dirs[filepath.Dir(name)]
	return ok
}

// Run processes events until ctx is cancelled, then releases the underlying
// watcher. Rebuild errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return w.fsw.Close()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			w.logger.Debug("Change detected", zap.String("path", event.Name), zap.Stringer("op", event.Op))

			// new subdirectories are not covered by the existing watches
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				w.addTree(event.Name)
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", zap.Error(err))

		case <-timerC:
			timerC = nil
			w.logger.Info("Rebuilding site due to changes")
			if err := w.rebuild(); err != nil {
				w.logger.Error("Rebuild failed", zap.Error(err))
			}
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
