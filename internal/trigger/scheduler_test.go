package trigger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pressline/internal/config"
	"git.home.luguber.info/inful/pressline/internal/pipeline"
)

// recordingSubmitter accepts everything and remembers the requests.
type recordingSubmitter struct {
	mu   sync.Mutex
	reqs []pipeline.RunRequest
}

func (r *recordingSubmitter) Start(_ context.Context, req pipeline.RunRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	return "run-1", nil
}

func (r *recordingSubmitter) requests() []pipeline.RunRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pipeline.RunRequest(nil), r.reqs...)
}

func TestScheduler_FiresIntoDispatcher(t *testing.T) {
	sub := &recordingSubmitter{}
	d := NewDispatcher(sub, fastTriggerConfig(), nil, nil, nil)

	s, err := NewScheduler([]config.ScheduleConfig{
		{Name: "draft-preview", Every: "10ms", Draft: true},
	}, d, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer func() { require.NoError(t, s.Stop()) }()

	require.Eventually(t, func() bool {
		return len(sub.requests()) >= 1
	}, 3*time.Second, 5*time.Millisecond)

	req := sub.requests()[0]
	require.Equal(t, pipeline.KindScheduled, req.Kind)
	require.True(t, req.IsDraft, "draft cadence submits draft runs")
	require.False(t, req.BuildOnly)
	require.WithinDuration(t, time.Now(), req.TriggeredAt, 5*time.Second)
}

func TestScheduler_SkipsDisabledSchedules(t *testing.T) {
	sub := &recordingSubmitter{}
	d := NewDispatcher(sub, fastTriggerConfig(), nil, nil, nil)

	s, err := NewScheduler([]config.ScheduleConfig{
		{Name: "published", Every: "10ms", Disabled: true},
	}, d, nil)
	require.NoError(t, err)
	require.Empty(t, s.scheduler.Jobs())
	require.NoError(t, s.Stop())
}

func TestNewScheduler_ValidatesSchedules(t *testing.T) {
	d := NewDispatcher(&recordingSubmitter{}, fastTriggerConfig(), nil, nil, nil)

	cases := []struct {
		name string
		sc   config.ScheduleConfig
	}{
		{"neither cron nor every", config.ScheduleConfig{Name: "empty"}},
		{"both cron and every", config.ScheduleConfig{Name: "both", Cron: "0 9 * * 1", Every: "1h"}},
		{"bad every", config.ScheduleConfig{Name: "bad", Every: "soon"}},
		{"negative every", config.ScheduleConfig{Name: "neg", Every: "-1s"}},
		{"bad cron", config.ScheduleConfig{Name: "badcron", Cron: "not a cron"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewScheduler([]config.ScheduleConfig{tc.sc}, d, nil)
			require.Error(t, err)
		})
	}
}

func TestJobDefinition_CronAndEvery(t *testing.T) {
	def, err := jobDefinition(config.ScheduleConfig{Cron: "0 9 * * 1"})
	require.NoError(t, err)
	require.NotNil(t, def)

	def, err = jobDefinition(config.ScheduleConfig{Every: "30m"})
	require.NoError(t, err)
	require.NotNil(t, def)
}
