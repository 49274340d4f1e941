package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/pressline/internal/config"
	"git.home.luguber.info/inful/pressline/internal/logfields"
	"git.home.luguber.info/inful/pressline/internal/pipeline"
)

// Scheduler wraps gocron to fire configured schedules into the Dispatcher.
// The published cadence submits publishable runs; draft cadences submit
// draft runs for preview.
type Scheduler struct {
	scheduler  gocron.Scheduler
	dispatcher *Dispatcher
	logger     *slog.Logger

	ctx context.Context // set by Start, bounds dispatch retries
}

// NewScheduler builds jobs for every enabled schedule.
func NewScheduler(schedules []config.ScheduleConfig, dispatcher *Dispatcher, logger *slog.Logger) (*Scheduler, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("trigger: dispatcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("trigger: create scheduler: %w", err)
	}
	s := &Scheduler{scheduler: gs, dispatcher: dispatcher, logger: logger, ctx: context.Background()}

	for _, sc := range schedules {
		if sc.Disabled {
			logger.Info("schedule disabled", logfields.ScheduleName(sc.Name))
			continue
		}
		def, err := jobDefinition(sc)
		if err != nil {
			_ = gs.Shutdown()
			return nil, fmt.Errorf("trigger: schedule %q: %w", sc.Name, err)
		}
		if _, err := gs.NewJob(def, gocron.NewTask(s.fire, sc), gocron.WithName(sc.Name)); err != nil {
			_ = gs.Shutdown()
			return nil, fmt.Errorf("trigger: schedule %q: %w", sc.Name, err)
		}
	}
	return s, nil
}

// jobDefinition maps a schedule to gocron: a five-field cron expression or a
// plain interval. Exactly one must be set.
func jobDefinition(sc config.ScheduleConfig) (gocron.JobDefinition, error) {
	switch {
	case sc.Cron != "" && sc.Every != "":
		return nil, fmt.Errorf("cron and every are mutually exclusive")
	case sc.Cron != "":
		return gocron.CronJob(sc.Cron, false), nil
	case sc.Every != "":
		d, err := time.ParseDuration(sc.Every)
		if err != nil {
			return nil, fmt.Errorf("parse every: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("every must be positive")
		}
		return gocron.DurationJob(d), nil
	default:
		return nil, fmt.Errorf("either cron or every is required")
	}
}

// Start begins firing schedules. ctx bounds the lifetime of dispatch retries.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs.
func (s *Scheduler) Stop() error {
	s.logger.Info("scheduler stopping")
	return s.scheduler.Shutdown()
}

// fire is the gocron task body for one schedule firing.
func (s *Scheduler) fire(sc config.ScheduleConfig) {
	req := pipeline.RunRequest{
		Kind:        pipeline.KindScheduled,
		TriggeredAt: time.Now(),
		IsDraft:     sc.Draft,
	}
	s.logger.Info("schedule fired",
		logfields.ScheduleName(sc.Name), slog.Bool("draft", sc.Draft))
	if id, err := s.dispatcher.Dispatch(s.ctx, req); err == nil {
		s.logger.Info("scheduled run submitted",
			logfields.ScheduleName(sc.Name), logfields.RunID(id))
	}
	// Dispatch reports its own drops; nothing more to do on failure.
}
