package corpus

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

// WatchedIndexer caches the corpus index and drops the cache whenever
// fsnotify reports a change under the root or one of its category folders.
// A stale entry between the change and the event is harmless: the resolver
// skips files that no longer exist.
type WatchedIndexer struct {
	root       string
	extensions []string
	logger     *zap.Logger
	watcher    *fsnotify.Watcher

	mu         sync.RWMutex
	cached     *types.CorpusIndex
	generation uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatchedIndexer builds the initial index and starts watching root.
// Fails with ErrCorpusUnavailable when root cannot be indexed.
func NewWatchedIndexer(root string, extensions []string, logger *zap.Logger) (*WatchedIndexer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	index, err := BuildIndex(root, extensions)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &WatchedIndexer{
		root:       root,
		extensions: extensions,
		logger:     logger,
		watcher:    watcher,
		cached:     index,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}

	if err := watcher.Add(root); err != nil {
		watcher.Close()
		return nil, err
	}
	w.watchCategories(index)

	return w, nil
}

// Start runs the event loop until ctx is cancelled or Close is called.
// Non-blocking.
func (w *WatchedIndexer) Start(ctx context.Context) {
	go w.run(ctx)
}

// Close stops the event loop and releases the watcher.
func (w *WatchedIndexer) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()
	})
	return err
}

// Done is closed once the event loop has exited.
func (w *WatchedIndexer) Done() <-chan struct{} {
	return w.doneCh
}

// Index implements Indexer. Rebuilds only after an invalidation.
func (w *WatchedIndexer) Index() (*types.CorpusIndex, error) {
	w.mu.RLock()
	cached, gen := w.cached, w.generation
	w.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	index, err := BuildIndex(w.root, w.extensions)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	// Keep the result only if no event arrived while building
	if w.generation == gen {
		w.cached = index
	}
	w.mu.Unlock()

	w.watchCategories(index)
	return index, nil
}

func (w *WatchedIndexer) run(ctx context.Context) {
	defer close(w.doneCh)
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
			w.logger.Debug("rule corpus changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()))
			w.invalidate()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("rule corpus watcher error", zap.Error(err))
			w.invalidate()
		}
	}
}

func (w *WatchedIndexer) invalidate() {
	w.mu.Lock()
	w.cached = nil
	w.generation++
	w.mu.Unlock()
}

// watchCategories adds every category folder of index to the watcher.
// Adding an already-watched path is a no-op in fsnotify.
func (w *WatchedIndexer) watchCategories(index *types.CorpusIndex) {
	for _, cat := range index.Categories {
		dir := filepath.Join(index.Root, cat.Name)
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Debug("cannot watch rule category", zap.String("category", cat.Name), zap.Error(err))
		}
	}
}
