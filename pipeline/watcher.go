package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher ingests CSV exports dropped into a directory and optionally
// triggers a scoring run after each ingest.
type Watcher struct {
	dir      string
	ingester *Ingester
	scorer   *Scorer
	logger   *zap.Logger

	fsWatcher *fsnotify.Watcher
	stopChan  chan struct{}
	wg        sync.WaitGroup

	seen     map[string]time.Time
	seenLock sync.Mutex
}

// NewWatcher builds a watcher over dir. scorer may be nil to disable
// score-on-drop.
func NewWatcher(dir string, ingester *Ingester, scorer *Scorer, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:       dir,
		ingester:  ingester,
		scorer:    scorer,
		logger:    logger,
		fsWatcher: fsWatcher,
		stopChan:  make(chan struct{}),
		seen:      make(map[string]time.Time),
	}, nil
}

// Start launches the watch loop.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
	w.logger.Info("watching for csv drops", zap.String("dir", w.dir))
}

// Stop shuts the watch loop down and waits for it.
func (w *Watcher) Stop() {
	close(w.stopChan)
	w.fsWatcher.Close()
	w.wg.Wait()
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if strings.ToLower(filepath.Ext(event.Name)) != ".csv" {
				continue
			}
			if !w.markSeen(event.Name) {
				continue
			}
			w.handleDrop(event.Name)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// markSeen debounces the create+write event pairs editors and copies emit.
func (w *Watcher) markSeen(path string) bool {
	w.seenLock.Lock()
	defer w.seenLock.Unlock()

	now := time.Now()
	if last, ok := w.seen[path]; ok && now.Sub(last) < 2*time.Second {
		return false
	}
	w.seen[path] = now
	return true
}

func (w *Watcher) handleDrop(path string) {
	// Give the writer a moment to finish the file.
	time.Sleep(200 * time.Millisecond)

	ctx := context.Background()
	stored, err := w.ingester.IngestCSV(ctx, path)
	if err != nil {
		w.logger.Error("ingest failed", zap.String("path", path), zap.Error(err))
		return
	}
	if stored == 0 || w.scorer == nil {
		return
	}
	if err := w.scorer.Run(ctx); err != nil {
		w.logger.Error("scoring run failed", zap.Error(err))
	}
}
