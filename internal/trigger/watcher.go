package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pressline/internal/config"
	"git.home.luguber.info/inful/pressline/internal/logfields"
	"git.home.luguber.info/inful/pressline/internal/pipeline"
)

// Watcher submits build-only runs when a watched site configuration file
// changes. Watching the parent directory instead of the file keeps the watch
// alive across editors that replace files on save. Write bursts are
// debounced into a single submission.
type Watcher struct {
	watcher    *fsnotify.Watcher
	files      map[string]bool // absolute paths of watched files
	debounce   time.Duration
	dispatcher *Dispatcher
	logger     *slog.Logger

	pending chan struct{}
	stop    chan struct{}
}

func NewWatcher(cfg config.WatchConfig, dispatcher *Dispatcher, logger *slog.Logger) (*Watcher, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("trigger: dispatcher is required")
	}
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("trigger: watch needs at least one path")
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("trigger: create file watcher: %w", err)
	}

	files := make(map[string]bool, len(cfg.Paths))
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("trigger: resolve watch path %s: %w", p, err)
		}
		files[abs] = true
	}

	return &Watcher{
		watcher:    fw,
		files:      files,
		debounce:   cfg.DebounceDuration(),
		dispatcher: dispatcher,
		logger:     logger,
		pending:    make(chan struct{}, 1),
		stop:       make(chan struct{}),
	}, nil
}

// Start adds the parent directories to the watch and begins both loops.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := map[string]bool{}
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("trigger: watch %s: %w", dir, err)
		}
	}
	w.logger.Info("change watcher started",
		slog.Int("files", len(w.files)),
		slog.String("debounce", w.debounce.String()))

	go w.watchLoop(ctx)
	go w.submitLoop(ctx)
	return nil
}

// Stop ends the loops and closes the underlying watcher.
func (w *Watcher) Stop() error {
	close(w.stop)
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("watched file changed",
				logfields.Path(abs), slog.String("op", event.Op.String()))
			select {
			case w.pending <- struct{}{}:
			default: // a submission is already pending
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", logfields.Error(err))
		}
	}
}

// submitLoop turns pending signals into one debounced run submission. Each
// new signal pushes the deadline out, absorbing editor write bursts.
func (w *Watcher) submitLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.pending:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.submit(ctx) })
		}
	}
}

func (w *Watcher) submit(ctx context.Context) {
	// Config changes need a rebuild, not new articles.
	req := pipeline.RunRequest{
		Kind:        pipeline.KindChange,
		TriggeredAt: time.Now(),
		BuildOnly:   true,
	}
	if id, err := w.dispatcher.Dispatch(ctx, req); err == nil {
		w.logger.Info("change-detection run submitted", logfields.RunID(id))
	}
}
