package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"libexport/logger"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps a MemoryCatalog in sync with the scanned directory.
// Every mutation goes through the catalog lock, so changes wait while an
// export holds its snapshot.
type Watcher struct {
	scanner *Scanner
	catalog *MemoryCatalog

	// SettleDelay is how long a file must stay unchanged before it is re-read.
	SettleDelay time.Duration
}

// NewWatcher creates a watcher feeding catalog from scanner's directory.
func NewWatcher(scanner *Scanner, catalog *MemoryCatalog) *Watcher {
	return &Watcher{
		scanner:     scanner,
		catalog:     catalog,
		SettleDelay: 500 * time.Millisecond,
	}
}

// Run watches the directory tree until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := addTree(fsw, w.scanner.Root()); err != nil {
		return err
	}
	logger.Info("watching library directory", logger.String("root", w.scanner.Root()))

	// 文件稳定性检查的延迟队列
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.SettleDelay / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event, pending)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", logger.ErrorField(err))

		case now := <-ticker.C:
			for path, changed := range pending {
				if now.Sub(changed) < w.SettleDelay {
					continue
				}
				delete(pending, path)
				w.refresh(path)
			}
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event, pending map[string]time.Time) {
	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// A removed or renamed directory takes everything below it along.
		root := filepath.ToSlash(event.Name)
		for name := range pending {
			if UnderPath(filepath.ToSlash(name), root) {
				delete(pending, name)
			}
		}
		if n := w.catalog.RemoveTree(root); n > 0 {
			logger.Info("removed tracks from catalog", logger.String("path", event.Name), logger.Int("tracks", n))
		}

	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addTree(fsw, event.Name); err != nil {
				logger.Warn("failed to watch new directory", logger.String("path", event.Name), logger.ErrorField(err))
			}
			return
		}
		if IsAudioFile(event.Name) {
			pending[event.Name] = time.Now()
		}
	}
}

func (w *Watcher) refresh(path string) {
	entry, err := w.scanner.ReadFile(path)
	if err != nil {
		logger.Warn("failed to re-read audio file", logger.String("path", path), logger.ErrorField(err))
		return
	}
	w.catalog.Put(entry)
	logger.Debug("catalog entry updated", logger.String("path", entry.Track.Path))
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
		}
		return nil
	})
}
