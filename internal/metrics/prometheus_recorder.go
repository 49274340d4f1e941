package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// runDurationBuckets covers whole runs. A run includes a site build that
// can take minutes; the default buckets top out at 10s.
var runDurationBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	runOutcomes   *prom.CounterVec
	branchResults *prom.CounterVec
	triggerRetry  *prom.CounterVec
	triggerDrops  *prom.CounterVec
	invalidations *prom.CounterVec
	runsInFlight  prom.Gauge
}

// NewPrometheusRecorder constructs and registers pipeline metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pressline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual run stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pressline",
			Name:      "run_duration_seconds",
			Help:      "Total run duration from start to terminal state",
			Buckets:   runDurationBuckets,
		}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pressline",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"}),
		branchResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pressline",
			Name:      "branch_results_total",
			Help:      "Language branch results by outcome",
		}, []string{"lang", "result"}),
		triggerRetry: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pressline",
			Name:      "trigger_retries_total",
			Help:      "Trigger submissions retried after rejection",
		}, []string{"kind"}),
		triggerDrops: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pressline",
			Name:      "trigger_drops_total",
			Help:      "Triggers dropped after exhausting delivery attempts",
		}, []string{"kind"}),
		invalidations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pressline",
			Name:      "invalidations_total",
			Help:      "CDN invalidation submissions by result",
		}, []string{"result"}),
		runsInFlight: prom.NewGauge(prom.GaugeOpts{
			Namespace: "pressline",
			Name:      "runs_in_flight",
			Help:      "Number of pipeline runs currently executing",
		}),
	}
	reg.MustRegister(
		pr.stageDuration, pr.runDuration, pr.runOutcomes, pr.branchResults,
		pr.triggerRetry, pr.triggerDrops, pr.invalidations, pr.runsInFlight,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcomes == nil {
		return
	}
	p.runOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncBranchResult(lang string, result ResultLabel) {
	if p == nil || p.branchResults == nil {
		return
	}
	p.branchResults.WithLabelValues(lang, string(result)).Inc()
}

func (p *PrometheusRecorder) IncTriggerRetry(kind string) {
	if p == nil || p.triggerRetry == nil {
		return
	}
	p.triggerRetry.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncTriggerDrop(kind string) {
	if p == nil || p.triggerDrops == nil {
		return
	}
	p.triggerDrops.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncInvalidation(success bool) {
	if p == nil || p.invalidations == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.invalidations.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) SetRunsInFlight(n int) {
	if p == nil || p.runsInFlight == nil {
		return
	}
	p.runsInFlight.Set(float64(n))
}
