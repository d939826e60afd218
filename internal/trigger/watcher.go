package trigger

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/models"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher turns file writes under <root>/<bucket> into storage events.
// Names are slash separated and relative to the bucket directory.
type Watcher struct {
	root     string
	bucket   string
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	events chan models.StorageEvent
}

type WatcherOption func(*Watcher)

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

func NewWatcher(root, bucket string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		root:     root,
		bucket:   bucket,
		debounce: defaultDebounce,
		timers:   make(map[string]*time.Timer),
		events:   make(chan models.StorageEvent, 64),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watcher) dir() string {
	return filepath.Join(w.root, w.bucket)
}

// Run watches until ctx is cancelled, calling handler for each settled file
// one at a time.
func (w *Watcher) Run(ctx context.Context, handler Handler) error {
	if err := os.MkdirAll(w.dir(), 0o755); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.dir()); err != nil {
		return err
	}
	log.Info().Str("dir", w.dir()).Msg("Watching for uploads")

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")
		case ev := <-w.events:
			handler(ctx, ev)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil || info.IsDir() {
		return
	}
	rel, err := filepath.Rel(w.dir(), ev.Name)
	if err != nil {
		return
	}
	w.debounceEvent(ctx, models.StorageEvent{Bucket: w.bucket, Name: filepath.ToSlash(rel)})
}

// debounceEvent emits ev once the file has been quiet for the debounce window.
func (w *Watcher) debounceEvent(ctx context.Context, ev models.StorageEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[ev.Name]; ok {
		t.Stop()
	}
	w.timers[ev.Name] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, ev.Name)
		w.mu.Unlock()
		select {
		case w.events <- ev:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name, t := range w.timers {
		t.Stop()
		delete(w.timers, name)
	}
}
