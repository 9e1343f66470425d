// Package metrics records per-run batch metrics and pushes them to a Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// RunStats summarises one job run
type RunStats struct {
	Job      string
	Symbols  int
	Bars     int
	Skipped  int
	Winners  int
	Duration time.Duration
	Err      error
}

// Recorder holds the batch metrics of one process
type Recorder struct {
	namespace string
	pushURL   string
	registry  *prometheus.Registry

	runs        *prometheus.CounterVec
	symbols     *prometheus.GaugeVec
	bars        *prometheus.GaugeVec
	skipped     *prometheus.GaugeVec
	winners     *prometheus.GaugeVec
	duration    *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
}

// NewRecorder creates a recorder on its own registry
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "niftyjobs",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	auto := promauto.With(r.registry)
	gauge := func(name, help string) *prometheus.GaugeVec {
		return auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: r.namespace,
			Name:      name,
			Help:      help,
		}, []string{"pipeline"})
	}

	r.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "runs_total",
		Help:      "Job runs by outcome",
	}, []string{"pipeline", "status"})
	r.symbols = gauge("symbols", "Symbols requested in the last run")
	r.bars = gauge("bars", "Price bars fetched in the last run")
	r.skipped = gauge("skipped", "Symbol/bucket pairs skipped in the last run")
	r.winners = gauge("winners", "Rows written in the last run")
	r.duration = gauge("duration_seconds", "Wall time of the last run")
	r.lastSuccess = gauge("last_success_timestamp_seconds", "Unix time of the last successful run")

	return r
}

// Enabled reports whether a Pushgateway is configured
func (r *Recorder) Enabled() bool {
	return r.pushURL != ""
}

// Observe records one run
func (r *Recorder) Observe(s RunStats) {
	status := statusSuccess
	if s.Err != nil {
		status = statusFailure
	}
	r.runs.WithLabelValues(s.Job, status).Inc()

	r.symbols.WithLabelValues(s.Job).Set(float64(s.Symbols))
	r.bars.WithLabelValues(s.Job).Set(float64(s.Bars))
	r.skipped.WithLabelValues(s.Job).Set(float64(s.Skipped))
	r.winners.WithLabelValues(s.Job).Set(float64(s.Winners))
	r.duration.WithLabelValues(s.Job).Set(s.Duration.Seconds())
	if s.Err == nil {
		r.lastSuccess.WithLabelValues(s.Job).SetToCurrentTime()
	}
}

// Push sends the registry to the Pushgateway, grouped by job. No-op when disabled.
// Metrics are labelled "pipeline" since the push API reserves "job".
func (r *Recorder) Push(ctx context.Context, job string) error {
	if !r.Enabled() {
		return nil
	}

	err := push.New(r.pushURL, r.namespace).
		Gatherer(r.registry).
		Grouping("batch", job).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
