package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pressline/internal/cdn"
	"git.home.luguber.info/inful/pressline/internal/config"
	"git.home.luguber.info/inful/pressline/internal/content"
	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/logfields"
	"git.home.luguber.info/inful/pressline/internal/metrics"
	"git.home.luguber.info/inful/pressline/internal/sitebuild"
)

// ContentGenerator produces one language's article for a publication window.
type ContentGenerator interface {
	Generate(ctx context.Context, lang content.Lang, isDraft bool, window content.Window) (content.ContentItem, error)
}

// ThumbnailRenderer produces the social card for a generated item.
type ThumbnailRenderer interface {
	Render(ctx context.Context, item content.ContentItem) ([]byte, error)
}

// SiteBuilder runs the external site build and verifies the artifact.
type SiteBuilder interface {
	Build(ctx context.Context, req sitebuild.BuildRequest) (sitebuild.BuildArtifact, error)
}

// RunArchiver persists terminal run views.
type RunArchiver interface {
	Save(ctx context.Context, v RunView) error
}

// Deps wires an Orchestrator. Generator, Renderer and Builder are required;
// everything else has a working default or is optional.
type Deps struct {
	Generator      ContentGenerator
	Renderer       ThumbnailRenderer
	Builder        SiteBuilder
	Invalidator    cdn.Invalidator // nil skips the invalidation call
	DistributionID string
	Langs          []content.Lang
	Archive        RunArchiver
	Bus            *Bus
	Recorder       metrics.Recorder
	Logger         *slog.Logger
	Triggers       config.TriggerConfig
}

// Orchestrator executes publishing runs: two language branches, a join, the
// site build, then CDN invalidation. One run in flight at a time.
type Orchestrator struct {
	generator      ContentGenerator
	renderer       ThumbnailRenderer
	builder        SiteBuilder
	invalidator    cdn.Invalidator
	distributionID string
	langs          []content.Lang
	registry       *Registry
	archive        RunArchiver
	bus            *Bus
	recorder       metrics.Recorder
	logger         *slog.Logger
	maxAge         time.Duration
	runTimeout     time.Duration
}

func NewOrchestrator(d Deps) (*Orchestrator, error) {
	if d.Generator == nil {
		return nil, fmt.Errorf("pipeline: content generator is required")
	}
	if d.Renderer == nil {
		return nil, fmt.Errorf("pipeline: thumbnail renderer is required")
	}
	if d.Builder == nil {
		return nil, fmt.Errorf("pipeline: site builder is required")
	}
	if d.Langs == nil {
		d.Langs = content.SupportedLangs()
	}
	if d.Bus == nil {
		d.Bus = NewBus()
	}
	if d.Recorder == nil {
		d.Recorder = metrics.NoopRecorder{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Orchestrator{
		generator:      d.Generator,
		renderer:       d.Renderer,
		builder:        d.Builder,
		invalidator:    d.Invalidator,
		distributionID: d.DistributionID,
		langs:          d.Langs,
		registry:       NewRegistry(),
		archive:        d.Archive,
		bus:            d.Bus,
		recorder:       d.Recorder,
		logger:         d.Logger,
		maxAge:         d.Triggers.MaxAgeDuration(),
		runTimeout:     d.Triggers.RunTimeoutDuration(),
	}, nil
}

// Bus returns the lifecycle event bus.
func (o *Orchestrator) Bus() *Bus { return o.bus }

// Registry returns the run registry for status reporting.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// Execute runs a request to its terminal state. The returned error is the
// admission failure or the run-level failure cause; branch failures alone do
// not make it non-nil.
func (o *Orchestrator) Execute(ctx context.Context, req RunRequest) (RunView, error) {
	rec, err := o.admit(req)
	if err != nil {
		return RunView{}, err
	}
	return o.run(ctx, rec)
}

// Start admits a request and executes it in the background, returning the run
// ID. ctx bounds the run's lifetime, not the caller's; daemons pass their
// root context so shutdown stops the run.
func (o *Orchestrator) Start(ctx context.Context, req RunRequest) (string, error) {
	rec, err := o.admit(req)
	if err != nil {
		return "", err
	}
	go func() {
		if _, err := o.run(ctx, rec); err != nil {
			o.logger.Error("run failed", logfields.RunID(rec.ID), logfields.Error(err))
		}
	}()
	return rec.ID, nil
}

// admit applies the acceptance policy: requests older than the trigger max
// age are expired, and only one run may be in flight.
func (o *Orchestrator) admit(req RunRequest) (*RunRecord, error) {
	if req.TriggeredAt.IsZero() {
		req.TriggeredAt = time.Now()
	}
	if o.maxAge > 0 && req.Age(time.Now()) > o.maxAge {
		return nil, perrors.TriggerExpired(string(req.Kind))
	}
	rec := NewRunRecord(req)
	if err := o.registry.Admit(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (o *Orchestrator) run(parent context.Context, rec *RunRecord) (RunView, error) {
	defer o.registry.Release(rec)
	o.recorder.SetRunsInFlight(1)
	defer o.recorder.SetRunsInFlight(0)

	ctx, cancel := context.WithTimeout(parent, o.runTimeout)
	defer cancel()

	rec.Begin(time.Now())
	window := content.WeekOf(rec.Request.TriggeredAt)
	o.logger.Info("run started",
		logfields.RunID(rec.ID), logfields.Kind(string(rec.Request.Kind)),
		slog.Bool("draft", rec.Request.IsDraft),
		slog.Bool("build_only", rec.Request.BuildOnly),
		slog.String("window", window.StartDate()))
	o.publish(RunStarted{
		ID: rec.ID, Kind: rec.Request.Kind,
		IsDraft: rec.Request.IsDraft, BuildOnly: rec.Request.BuildOnly,
		At: time.Now(),
	})

	if rec.Request.BuildOnly {
		// Config-change rebuilds reuse existing content; no branches.
		if err := rec.Transition(StatusJoined); err != nil {
			return o.finish(ctx, rec, StatusFailed, "", err)
		}
	} else {
		if err := rec.Transition(StatusRunning); err != nil {
			return o.finish(ctx, rec, StatusFailed, "", err)
		}
		for _, out := range o.runBranches(ctx, rec, window) {
			o.recordBranch(rec, out)
		}
		if err := rec.Transition(StatusJoined); err != nil {
			return o.finish(ctx, rec, StatusFailed, "", err)
		}
	}

	// The build proceeds regardless of branch outcomes; stale content is
	// preferable to no site.
	if err := rec.Transition(StatusBuilding); err != nil {
		return o.finish(ctx, rec, StatusFailed, "", err)
	}
	artifact, buildErr := o.builder.Build(ctx, sitebuild.BuildRequest{
		RunID:   rec.ID,
		IsDraft: rec.Request.IsDraft,
	})
	rec.SetArtifact(artifact)
	o.recorder.ObserveStageDuration(StageBuild, artifact.Duration)
	o.publish(BuildCompleted{
		ID: rec.ID, Success: artifact.Success,
		Location: artifact.ArtifactLocation, At: time.Now(),
	})
	if !artifact.Success {
		if buildErr == nil {
			buildErr = perrors.InternalError("build failed without a cause", nil)
		}
		return o.finish(ctx, rec, StatusFailed, buildStage(buildErr), buildErr)
	}

	if err := rec.Transition(StatusInvalidating); err != nil {
		return o.finish(ctx, rec, StatusFailed, "", err)
	}
	if o.invalidator != nil {
		start := time.Now()
		// Caller reference is the run ID; re-submitting the same run is
		// idempotent on the provider side.
		ack, err := o.invalidator.Invalidate(ctx, o.distributionID, rec.ID)
		o.recorder.ObserveStageDuration(StageInvalidate, time.Since(start))
		o.recorder.IncInvalidation(err == nil)
		if err != nil {
			return o.finish(ctx, rec, StatusFailed, StageInvalidate, err)
		}
		rec.SetInvalidation(ack)
	} else {
		o.logger.Debug("cdn disabled, skipping invalidation", logfields.RunID(rec.ID))
	}

	return o.finish(ctx, rec, StatusSucceeded, "", nil)
}

// finish drives the run to its terminal state and emits the terminal record
// to metrics, the bus and the archive.
func (o *Orchestrator) finish(ctx context.Context, rec *RunRecord, status RunStatus, stage string, cause error) (RunView, error) {
	now := time.Now()
	if err := rec.Finish(status, stage, cause, now); err != nil {
		// Only reachable from an already-terminal record, which is a bug.
		o.logger.Error("run could not reach terminal state",
			logfields.RunID(rec.ID), logfields.Error(err))
	}
	v := rec.View()

	o.recorder.ObserveRunDuration(v.EndedAt.Sub(v.StartedAt))
	o.recorder.IncRunOutcome(outcomeLabel(status, cause))
	o.publish(RunFinished{ID: rec.ID, Status: status, FailedStage: stage, At: now})

	if o.archive != nil && IsTerminal(status) {
		// Archive with a fresh context; the run context may already be done.
		actx, acancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer acancel()
		if err := o.archive.Save(actx, v); err != nil {
			o.logger.Warn("run archive save failed",
				logfields.RunID(rec.ID), logfields.Error(err))
		}
	}

	attrs := []any{
		logfields.RunID(rec.ID), logfields.State(string(status)),
		logfields.DurationMS(float64(v.EndedAt.Sub(v.StartedAt).Milliseconds())),
	}
	if status == StatusFailed {
		attrs = append(attrs, logfields.Stage(stage), logfields.Error(cause))
		o.logger.Error("run failed", attrs...)
	} else {
		o.logger.Info("run succeeded", attrs...)
	}
	return v, cause
}

// publish sends an event, logging rather than propagating handler failures;
// observers never break a run.
func (o *Orchestrator) publish(e Event) {
	if err := o.bus.Publish(e); err != nil {
		o.logger.Warn("event publish failed",
			slog.String("event", e.Name()), logfields.Error(err))
	}
}

// buildStage attributes a build-phase failure to its stage for the terminal
// record: artifact verification failures are their own stage.
func buildStage(err error) string {
	if perrors.IsCategory(err, perrors.CategoryVerify) {
		return StageVerify
	}
	return StageBuild
}

// outcomeLabel maps a terminal state to its metric label. External
// cancellation is reported as canceled, not failed.
func outcomeLabel(status RunStatus, cause error) string {
	if status == StatusFailed && errors.Is(cause, context.Canceled) {
		return "canceled"
	}
	return string(status)
}
