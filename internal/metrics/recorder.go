package metrics

import "time"

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for pipeline runs. Implementations
// must tolerate being called through a nil pointer so components can take
// an optional Recorder without guarding every call site.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome string) // outcome: succeeded|failed|canceled
	IncBranchResult(lang string, result ResultLabel)
	IncTriggerRetry(kind string)
	IncTriggerDrop(kind string)
	IncInvalidation(success bool)
	SetRunsInFlight(n int)
}

// NoopRecorder is the default Recorder when metrics are not configured.
type NoopRecorder struct{}

var _ Recorder = NoopRecorder{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncRunOutcome(string)                       {}
func (NoopRecorder) IncBranchResult(string, ResultLabel)        {}
func (NoopRecorder) IncTriggerRetry(string)                     {}
func (NoopRecorder) IncTriggerDrop(string)                      {}
func (NoopRecorder) IncInvalidation(bool)                       {}
func (NoopRecorder) SetRunsInFlight(int)                        {}
