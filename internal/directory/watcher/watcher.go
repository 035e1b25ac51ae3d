// Package watcher reports edits to the directory data file. The store keeps
// re-reading the file on every request; the watcher only announces changes
// so downstream consumers can react.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gartstein/directory/internal/directory/events"
	"go.uber.org/zap"
)

// EventProducer receives the change notifications.
type EventProducer interface {
	Produce(event events.Event)
}

// FileWatcher watches the directory containing the data file, so atomic
// replace-by-rename saves are seen too, and debounces bursts of writes into
// one directory_changed event.
type FileWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	producer EventProducer
	logger   *zap.Logger
	debounce time.Duration
	pending  string
	timer    *time.Timer
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// New creates a watcher for path. Call Start to begin watching.
func New(path string, producer EventProducer, debounce time.Duration, logger *zap.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &FileWatcher{
		watcher:  w,
		path:     abs,
		producer: producer,
		logger:   logger.Named("file_watcher"),
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking.
func (fw *FileWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.mu.Unlock()

	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		fw.mu.Lock()
		fw.running = false
		fw.mu.Unlock()
		return err
	}
	fw.logger.Info("watching data file", zap.String("path", fw.path))

	go fw.run(ctx)
	return nil
}

// Stop ends watching and releases the underlying watcher.
func (fw *FileWatcher) Stop() {
	fw.mu.Lock()
	wasRunning := fw.running
	fw.running = false
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()

	if wasRunning {
		close(fw.stopCh)
		<-fw.doneCh
	}
	if err := fw.watcher.Close(); err != nil {
		fw.logger.Error("error closing watcher", zap.Error(err))
	}
}

func (fw *FileWatcher) run(ctx context.Context) {
	defer close(fw.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stopCh:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != fw.path {
		return
	}

	var op string
	switch {
	case event.Op&fsnotify.Create != 0:
		op = "create"
	case event.Op&fsnotify.Write != 0:
		op = "write"
	case event.Op&fsnotify.Remove != 0:
		op = "remove"
	case event.Op&fsnotify.Rename != 0:
		op = "rename"
	default:
		return
	}

	fw.logger.Debug("data file event", zap.String("op", op))

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if !fw.running {
		return
	}
	fw.pending = op
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.flush)
}

func (fw *FileWatcher) flush() {
	fw.mu.Lock()
	op := fw.pending
	fw.pending = ""
	running := fw.running
	fw.mu.Unlock()

	if op == "" || !running {
		return
	}
	fw.logger.Info("data file changed", zap.String("path", fw.path), zap.String("op", op))
	fw.producer.Produce(events.NewDirectoryChanged(fw.path, op))
}
