package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDelay coalesces copy bursts into one rescan
const DefaultWatchDelay = 2 * time.Second

// Watcher calls onChange after audio files under root stop changing.
type Watcher struct {
	root     string
	delay    time.Duration
	onChange func()
	logger   *slog.Logger
}

func NewWatcher(root string, delay time.Duration, onChange func(), logger *slog.Logger) *Watcher {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{root: root, delay: delay, onChange: onChange, logger: logger}
}

// Run watches until ctx is canceled. fsnotify is not recursive, so every
// directory is added up front and new ones as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	if w.onChange == nil {
		return errors.New("onChange callback is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	w.logger.Info("watching music folder", "root", w.root)

	var mu sync.Mutex
	var debounce *time.Timer
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if debounce != nil {
			debounce.Stop()
		}
		debounce = time.AfterFunc(w.delay, w.onChange)
	}
	defer func() {
		mu.Lock()
		if debounce != nil {
			debounce.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						w.logger.Warn("failed to watch new folder", "path", event.Name, "error", err)
					}
					schedule()
					continue
				}
			}
			if w.relevant(event) {
				schedule()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// relevant filters out chmod noise and non-audio files. Removals are always
// relevant since a removed directory has no extension.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return true
	}
	return audioExtensions[strings.ToLower(filepath.Ext(event.Name))]
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}
