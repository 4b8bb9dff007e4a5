// Package watch uploads documents dropped into a directory.
//
// New or modified PDF, DOCX and TXT files are uploaded through the
// DocumentOrchestrator once they stop changing. Uploads run one at a time;
// while the orchestrator is busy a file stays queued and is retried on the
// next tick.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// DefaultSettle is how long a file must be quiet before it is uploaded.
const DefaultSettle = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Dir is the directory to watch. Subdirectories are not watched.
	Dir string

	// Settle is the quiet period before upload (default: 500ms).
	Settle time.Duration

	// SkipExisting skips files whose name is already in the corpus.
	// Requires Corpus on the Watcher.
	SkipExisting bool
}

// Event reports the outcome for one file.
type Event struct {
	Path    string
	Result  *domain.UploadResult
	Skipped bool
	Err     error
}

// Watcher queues filesystem changes and uploads them.
type Watcher struct {
	orchestrator driving.DocumentOrchestrator
	corpus       driving.CorpusService
	opts         Options

	// pending maps a path to the time of its last change.
	pending map[string]time.Time
	now     func() time.Time
}

// New creates a watcher for opts.Dir. corpus may be nil.
func New(orchestrator driving.DocumentOrchestrator, corpus driving.CorpusService, opts Options) (*Watcher, error) {
	if orchestrator == nil {
		return nil, errors.New("watch: orchestrator is required")
	}
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", opts.Dir)
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.SkipExisting && corpus == nil {
		return nil, errors.New("watch: SkipExisting requires a corpus service")
	}

	return &Watcher{
		orchestrator: orchestrator,
		corpus:       corpus,
		opts:         opts,
		pending:      make(map[string]time.Time),
		now:          time.Now,
	}, nil
}

// Run watches until ctx is cancelled. onEvent is called from Run's
// goroutine after each upload attempt that completes or is skipped.
func (w *Watcher) Run(ctx context.Context, onEvent func(Event)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", w.opts.Dir, err)
	}
	logger.Info("Watching %s", w.opts.Dir)

	ticker := time.NewTicker(w.opts.Settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-ticker.C:
			w.flush(ctx, onEvent)
		}
	}
}

// handleEvent records or forgets a path. It reports whether the path is queued.
func (w *Watcher) handleEvent(ev fsnotify.Event) bool {
	path := ev.Name
	if isHidden(path) || !domain.IsAcceptedFile(path) {
		return false
	}

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(w.pending, path)
		return false

	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
		w.pending[path] = w.now()
		logger.Debug("Queued %s", filepath.Base(path))
		return true
	}
	return false
}

// flush uploads every settled path, oldest first.
func (w *Watcher) flush(ctx context.Context, onEvent func(Event)) {
	for _, path := range w.settled() {
		if ctx.Err() != nil {
			return
		}
		if w.orchestrator.Busy() {
			logger.Debug("Upload in progress, %s stays queued", filepath.Base(path))
			return
		}

		ev, retry := w.upload(ctx, path)
		if retry {
			return
		}
		delete(w.pending, path)
		if onEvent != nil {
			onEvent(ev)
		}
	}
}

func (w *Watcher) upload(ctx context.Context, path string) (Event, bool) {
	name := filepath.Base(path)
	if w.opts.SkipExisting && w.corpus.Has(name) {
		logger.Debug("Skipping %s, already indexed", name)
		return Event{Path: path, Skipped: true}, false
	}

	result, err := w.orchestrator.Upload(ctx, path)
	if errors.Is(err, domain.ErrUploadInProgress) {
		return Event{}, true
	}
	if err != nil {
		logger.Warn("Upload of %s failed: %v", name, err)
	}
	return Event{Path: path, Result: result, Err: err}, false
}

// settled returns queued paths that have been quiet for Settle.
func (w *Watcher) settled() []string {
	cutoff := w.now().Add(-w.opts.Settle)

	var paths []string
	for path, last := range w.pending {
		if !last.After(cutoff) {
			paths = append(paths, path)
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		return w.pending[paths[i]].Before(w.pending[paths[j]])
	})
	return paths
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
