package services

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"checkdocs/pkg/logging"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports edits made to the catalog outside the admin tool, such as a
// git checkout or a hand edit of manifest.json.
type Watcher struct {
	mu           sync.Mutex
	watcher      *fsnotify.Watcher
	checksDir    string
	manifestPath string
	onChange     func()
	log          *zap.Logger

	debounce time.Duration
	pending  bool
	lastSeen time.Time

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

func NewWatcher(checksDir, manifestPath string, onChange func(), log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ioError(err, "cannot create file watcher")
	}
	return &Watcher{
		watcher:      fw,
		checksDir:    filepath.Clean(checksDir),
		manifestPath: filepath.Clean(manifestPath),
		onChange:     onChange,
		log:          logging.OrNop(log),
		debounce:     200 * time.Millisecond,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

// Start watches the checks directory and the directory holding the manifest.
// The manifest is usually replaced by rename, so its parent is watched rather
// than the file itself.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.checksDir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		if closeErr := w.watcher.Close(); closeErr != nil {
			w.log.Debug("closing watcher", zap.Error(closeErr))
		}
		return ioError(err, "cannot watch checks directory")
	}
	manifestDir := filepath.Dir(w.manifestPath)
	if manifestDir != w.checksDir {
		if err := w.watcher.Add(manifestDir); err != nil {
			w.log.Warn("manifest directory not watched", zap.String("dir", manifestDir), zap.Error(err))
		}
	}

	go w.run(ctx)
	w.log.Debug("watching catalog", zap.String("checks_dir", w.checksDir))
	return nil
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Error("closing watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !w.relevant(event.Name) {
		return
	}
	w.log.Debug("catalog changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.pending = true
	w.lastSeen = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if name == w.manifestPath {
		return true
	}
	return filepath.Dir(name) == w.checksDir && strings.HasSuffix(name, htmlExt)
}

// flush fires onChange once a burst of events has settled.
func (w *Watcher) flush() {
	w.mu.Lock()
	fire := w.pending && time.Since(w.lastSeen) >= w.debounce
	if fire {
		w.pending = false
	}
	w.mu.Unlock()

	if fire && w.onChange != nil {
		w.onChange()
	}
}
