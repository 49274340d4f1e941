// Package daemon runs the long-lived publishing service: the pipeline
// orchestrator, its scheduled and change-detection triggers, and the admin
// HTTP surface.
package daemon

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/pressline/internal/cdn"
	"git.home.luguber.info/inful/pressline/internal/config"
	"git.home.luguber.info/inful/pressline/internal/content"
	"git.home.luguber.info/inful/pressline/internal/logfields"
	"git.home.luguber.info/inful/pressline/internal/metrics"
	"git.home.luguber.info/inful/pressline/internal/pipeline"
	"git.home.luguber.info/inful/pressline/internal/sitebuild"
	"git.home.luguber.info/inful/pressline/internal/storage"
	"git.home.luguber.info/inful/pressline/internal/thumbnail"
	"git.home.luguber.info/inful/pressline/internal/trigger"
)

// Status reports the daemon lifecycle state.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
)

// stopTimeout bounds graceful teardown once shutdown begins.
const stopTimeout = 10 * time.Second

// Daemon wires the publishing pipeline to its triggers and serves the admin
// HTTP surface. Optional components (scheduler, watcher, archive, CDN, NATS,
// Prometheus) stay nil when their configuration is absent.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	status    atomic.Value // Status
	startTime time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
	addr      atomic.Value // string, set once the admin listener is bound

	// runCtx bounds every run started while the daemon is up; teardown
	// cancels it so in-flight work reaches a terminal state.
	runCtx     context.Context
	cancelRuns context.CancelFunc

	store        storage.ObjectStore
	orchestrator *pipeline.Orchestrator
	dispatcher   *trigger.Dispatcher
	scheduler    *trigger.Scheduler
	watcher      *trigger.Watcher
	archive      *pipeline.Archive
	publisher    *pipeline.NATSPublisher
	registry     *prometheus.Registry
	server       *HTTPServer
}

// NewDaemon wires a daemon from configuration. The content store, and the
// archive and event publisher when configured, are opened here; Start only
// binds the port and launches the triggers.
func NewDaemon(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if cfg.Daemon == nil {
		return nil, fmt.Errorf("daemon configuration is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
	d.status.Store(StatusStopped)

	langs, err := content.ParseLangs(cfg.Content.Languages)
	if err != nil {
		return nil, fmt.Errorf("content languages: %w", err)
	}

	store, err := storage.NewStore(context.Background(), cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}
	d.store = store

	generator := content.NewGenerator(store, content.DigestSource{}, cfg.Content.Root, logger)
	renderer := thumbnail.NewRenderer(store, cfg.Content, logger)
	tools := sitebuild.NewToolCache(cfg.Build, logger)
	builder := sitebuild.NewBuilder(store, tools, cfg.Site, cfg.Build, cfg.Content.Root, logger)

	var invalidator cdn.Invalidator
	if cfg.CDN.Enabled {
		invalidator = cdn.NewHTTPInvalidator(cfg.CDN, logger)
	}

	recorder := metrics.Recorder(metrics.NoopRecorder{})
	if cfg.Monitoring != nil && cfg.Monitoring.Metrics.Enabled {
		d.registry = prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(d.registry)
	}

	deps := pipeline.Deps{
		Generator:      generator,
		Renderer:       renderer,
		Builder:        builder,
		Invalidator:    invalidator,
		DistributionID: cfg.CDN.DistributionID,
		Langs:          langs,
		Bus:            pipeline.NewBus(),
		Recorder:       recorder,
		Logger:         logger,
		Triggers:       cfg.Triggers,
	}

	if cfg.Archive.Path != "" {
		archive, err := pipeline.OpenArchive(cfg.Archive.Path)
		if err != nil {
			d.closeResources()
			return nil, fmt.Errorf("open run archive: %w", err)
		}
		d.archive = archive
		deps.Archive = archive
	}

	if cfg.Events != nil {
		publisher, err := pipeline.NewNATSPublisher(*cfg.Events, logger)
		if err != nil {
			d.closeResources()
			return nil, fmt.Errorf("connect event publisher: %w", err)
		}
		publisher.Register(deps.Bus)
		d.publisher = publisher
	}

	orchestrator, err := pipeline.NewOrchestrator(deps)
	if err != nil {
		d.closeResources()
		return nil, err
	}
	d.orchestrator = orchestrator

	d.dispatcher = trigger.NewDispatcher(orchestrator, cfg.Triggers, orchestrator.Bus(), recorder, logger)

	if len(cfg.Schedules) > 0 {
		scheduler, err := trigger.NewScheduler(cfg.Schedules, d.dispatcher, logger)
		if err != nil {
			d.closeResources()
			return nil, fmt.Errorf("build schedules: %w", err)
		}
		d.scheduler = scheduler
	}

	if cfg.Watch != nil && cfg.Watch.Enabled {
		watcher, err := trigger.NewWatcher(*cfg.Watch, d.dispatcher, logger)
		if err != nil {
			d.closeResources()
			return nil, fmt.Errorf("watch site config: %w", err)
		}
		d.watcher = watcher
	}

	d.server = NewHTTPServer(cfg, d)
	return d, nil
}

// Start brings up the triggers and the admin server, then blocks until ctx
// is canceled, Stop is called, or the server fails. Graceful teardown runs
// before it returns.
func (d *Daemon) Start(ctx context.Context) error {
	if d.GetStatus() != StatusStopped {
		return fmt.Errorf("daemon is not in stopped state: %s", d.GetStatus())
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()
	d.runCtx, d.cancelRuns = context.WithCancel(ctx)

	ln, err := d.server.Listen()
	if err != nil {
		d.cancelRuns()
		d.status.Store(StatusStopped)
		return err
	}
	d.addr.Store(ln.Addr().String())

	if d.watcher != nil {
		if err := d.watcher.Start(d.runCtx); err != nil {
			_ = ln.Close()
			d.cancelRuns()
			d.status.Store(StatusStopped)
			return fmt.Errorf("start config watcher: %w", err)
		}
	}
	if d.scheduler != nil {
		d.scheduler.Start(d.runCtx)
	}

	d.status.Store(StatusRunning)
	d.logger.Info("daemon started",
		slog.String("addr", ln.Addr().String()),
		slog.Int("schedules", len(d.cfg.Schedules)),
		slog.Bool("watching", d.watcher != nil),
		slog.Bool("cdn", d.cfg.CDN.Enabled),
		slog.String("config_hash", d.cfg.Snapshot()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := d.server.Serve(ln)
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-d.stopChan:
		}
		d.status.Store(StatusStopping)
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		return d.teardown(stopCtx)
	})

	err = g.Wait()
	d.status.Store(StatusStopped)
	d.logger.Info("daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return err
}

// Stop signals a running daemon to shut down. It returns once the signal is
// delivered; Start returns after teardown completes.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() { close(d.stopChan) })
}

// teardown stops trigger sources, drains the admin server and the in-flight
// run, then releases backing resources.
func (d *Daemon) teardown(ctx context.Context) error {
	var errs []error
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop watcher: %w", err))
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
		}
	}
	if err := d.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown admin server: %w", err))
	}

	d.cancelRuns()
	d.drainActiveRun(ctx)

	d.closeResources()
	return stderrors.Join(errs...)
}

// drainActiveRun waits for the in-flight run to reach its terminal state so
// its record lands in the archive before the archive closes. The run context
// is already canceled when this is called.
func (d *Daemon) drainActiveRun(ctx context.Context) {
	for {
		v, ok := d.orchestrator.Registry().Active()
		if !ok {
			return
		}
		select {
		case <-ctx.Done():
			d.logger.Warn("shutdown deadline reached with a run still in flight",
				logfields.RunID(v.ID))
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// closeResources releases backing stores, logging close failures.
func (d *Daemon) closeResources() {
	if d.publisher != nil {
		d.publisher.Close()
	}
	if d.archive != nil {
		if err := d.archive.Close(); err != nil {
			d.logger.Error("failed to close run archive", logfields.Error(err))
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Error("failed to close content store", logfields.Error(err))
		}
	}
}

// GetStatus returns the current daemon lifecycle state.
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusStopped
	}
	return status
}

// GetStartTime returns when the daemon was started.
func (d *Daemon) GetStartTime() time.Time {
	return d.startTime
}

// Addr returns the bound admin address, or "" before Start binds it.
func (d *Daemon) Addr() string {
	addr, _ := d.addr.Load().(string)
	return addr
}

// runContext returns the context bounding submitted runs. Manual runs outlive
// the HTTP request that submitted them, so handlers must not use the request
// context here.
func (d *Daemon) runContext() context.Context {
	if d.runCtx != nil {
		return d.runCtx
	}
	return context.Background()
}
