// Package trigger feeds run requests into the pipeline: cron schedules,
// change detection on watched files, and manual submissions all funnel
// through one Dispatcher that applies the delivery policy.
package trigger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pressline/internal/config"
	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/logfields"
	"git.home.luguber.info/inful/pressline/internal/metrics"
	"git.home.luguber.info/inful/pressline/internal/pipeline"
	"git.home.luguber.info/inful/pressline/internal/retry"
)

// Submitter admits run requests. Satisfied by pipeline.Orchestrator.
type Submitter interface {
	Start(ctx context.Context, req pipeline.RunRequest) (string, error)
}

// Dispatcher delivers trigger firings to the pipeline. An in-flight rejection
// is retried with backoff while the request stays younger than the trigger
// max age; after that the firing is dropped and reported.
type Dispatcher struct {
	submitter Submitter
	policy    retry.Policy
	maxAge    time.Duration
	bus       *pipeline.Bus
	recorder  metrics.Recorder
	dropped   *DropLog
	logger    *slog.Logger
}

func NewDispatcher(submitter Submitter, cfg config.TriggerConfig, bus *pipeline.Bus, recorder metrics.Recorder, logger *slog.Logger) *Dispatcher {
	if bus == nil {
		bus = pipeline.NewBus()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		submitter: submitter,
		policy:    retry.NewPolicy(cfg.RetryBackoff, cfg.InitialDelay(), cfg.MaxDelay(), cfg.MaxRetries),
		maxAge:    cfg.MaxAgeDuration(),
		bus:       bus,
		recorder:  recorder,
		dropped:   NewDropLog(),
		logger:    logger,
	}
}

// Dropped exposes the record of abandoned firings.
func (d *Dispatcher) Dropped() *DropLog { return d.dropped }

// Dispatch submits req until it is accepted, the retry budget is spent, or
// the request outlives the max age. The returned error is the drop reason.
func (d *Dispatcher) Dispatch(ctx context.Context, req pipeline.RunRequest) (string, error) {
	if req.TriggeredAt.IsZero() {
		req.TriggeredAt = time.Now()
	}
	kind := string(req.Kind)

	for attempt := 0; ; attempt++ {
		id, err := d.submitter.Start(ctx, req)
		if err == nil {
			if attempt > 0 {
				d.logger.Info("trigger accepted after retry",
					logfields.Kind(kind), logfields.Attempt(attempt), logfields.RunID(id))
			}
			return id, nil
		}
		if !errors.Is(err, pipeline.ErrRunInFlight) {
			// Expired or otherwise unacceptable; retrying cannot help.
			return "", d.drop(req, err.Error())
		}
		if attempt >= d.policy.MaxRetries {
			return "", d.drop(req, "delivery attempts exhausted")
		}
		if req.Age(time.Now()) > d.maxAge {
			return "", d.drop(req, "exceeded max age while waiting for the in-flight run")
		}

		d.recorder.IncTriggerRetry(kind)
		d.logger.Warn("run in flight, trigger delivery will retry",
			logfields.Kind(kind), logfields.Attempt(attempt+1))
		if err := d.policy.Sleep(ctx, attempt+1); err != nil {
			return "", d.drop(req, "canceled during retry backoff")
		}
	}
}

// drop reports an abandoned firing through the log, the metric, the event
// bus and the drop log, then returns the rejection error.
func (d *Dispatcher) drop(req pipeline.RunRequest, reason string) error {
	kind := string(req.Kind)
	now := time.Now()

	d.logger.Error("trigger dropped", logfields.Kind(kind),
		slog.String("reason", reason),
		slog.Time("triggered_at", req.TriggeredAt))
	d.recorder.IncTriggerDrop(kind)
	if err := d.bus.Publish(pipeline.TriggerDropped{Kind: req.Kind, Reason: reason, At: now}); err != nil {
		d.logger.Warn("trigger drop event publish failed", logfields.Error(err))
	}
	d.dropped.Record(DroppedTrigger{Request: req, Reason: reason, At: now})

	return perrors.TriggerRejected(kind, reason)
}
