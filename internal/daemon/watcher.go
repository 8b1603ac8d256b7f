package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// sourceWatcher watches an AsciiDoc tree and triggers navigation
// regeneration after a debounced burst of changes.
type sourceWatcher struct {
	root     string
	debounce time.Duration
	regen    RegenFunc

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	kickChan chan struct{}
}

func newSourceWatcher(root string, debounce time.Duration, regen RegenFunc) (*sourceWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &sourceWatcher{
		root:     abs,
		debounce: debounce,
		regen:    regen,
		watcher:  w,
		stopChan: make(chan struct{}),
		kickChan: make(chan struct{}, 1),
	}, nil
}

// Start registers the tree and launches the event and debounce loops.
// fsnotify does not recurse, so every subdirectory is added explicitly;
// directories created later are picked up from their create events.
func (w *sourceWatcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		w.watcher.Close()
		return fmt.Errorf("watch source tree %s: %w", w.root, err)
	}

	slog.Info("Watching source tree", "root", w.root, "debounce", w.debounce)
	go w.eventLoop(ctx)
	go w.regenLoop(ctx)
	return nil
}

func (w *sourceWatcher) Stop() {
	close(w.stopChan)
	if err := w.watcher.Close(); err != nil {
		slog.Error("Error closing source watcher", "error", err)
	}
}

// relevant filters for AsciiDoc edits; generated and hidden files are noise.
func relevant(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".adoc")
}

func (w *sourceWatcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				// A new directory needs its own watch.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.watcher.Add(event.Name)
				}
			}
			if !relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				slog.Debug("Source change detected", "file", event.Name, "op", event.Op.String())
				w.kick()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Source watcher error", "error", err)
		}
	}
}

func (w *sourceWatcher) regenLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.kickChan:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				if err := w.regen(ctx); err != nil {
					slog.Error("Navigation regeneration failed", "error", err)
				}
			})
		}
	}
}

func (w *sourceWatcher) kick() {
	select {
	case w.kickChan <- struct{}{}:
	default:
	}
}
