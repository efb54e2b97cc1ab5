// internal/watch/watcher.go
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RefWatcher observes a repository's ref state (HEAD, refs/, packed-refs)
// and emits a notification when any of it changes. Bursts of events (a
// single git command touches several files) are coalesced by a debounce
// window before a notification goes out.
type RefWatcher struct {
	watcher  *fsnotify.Watcher
	gitDir   string
	events   chan struct{}
	debounce time.Duration
	logger   *zap.Logger
}

func NewRefWatcher(gitDir string, logger *zap.Logger) (*RefWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &RefWatcher{
		watcher:  watcher,
		gitDir:   gitDir,
		events:   make(chan struct{}, 1),
		debounce: 300 * time.Millisecond,
		logger:   logger,
	}

	if err := w.addWatches(); err != nil {
		watcher.Close()
		return nil, err
	}

	return w, nil
}

func (w *RefWatcher) addWatches() error {
	// HEAD and packed-refs live directly in the git dir.
	if err := w.watcher.Add(w.gitDir); err != nil {
		return fmt.Errorf("watching %s: %w", w.gitDir, err)
	}

	refsDir := filepath.Join(w.gitDir, "refs")
	return filepath.Walk(refsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // refs dir may be sparse; skip what we cannot read
		}
		if info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("watching refs directory failed",
					zap.String("path", path),
					zap.Error(err))
			}
		}
		return nil
	})
}

// Events delivers one signal per coalesced burst of ref changes.
func (w *RefWatcher) Events() <-chan struct{} {
	return w.events
}

// Run processes filesystem events until ctx is done.
func (w *RefWatcher) Run(ctx context.Context) error {
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("ref state changed", zap.String("path", event.Name))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			select {
			case w.events <- struct{}{}:
			default: // a notification is already queued
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

// relevant filters events down to ref state. New directories under refs/
// get added to the watch set as a side effect.
func (w *RefWatcher) relevant(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	rel, err := filepath.Rel(w.gitDir, event.Name)
	if err != nil {
		return false
	}

	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if strings.HasPrefix(rel, "refs") {
				if err := w.watcher.Add(event.Name); err != nil {
					w.logger.Warn("adding new refs directory to watcher", zap.Error(err))
				}
			}
			return false
		}
	}

	switch {
	case rel == "HEAD" || rel == "packed-refs":
		return true
	case strings.HasPrefix(rel, "refs"):
		// git writes refs via lock files; the rename to the final name is
		// what matters, but counting the lock write is harmless thanks to
		// the debounce.
		return name != ""
	}
	return false
}

func (w *RefWatcher) Close() error {
	return w.watcher.Close()
}
