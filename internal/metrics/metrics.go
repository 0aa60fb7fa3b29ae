// Package metrics records batch engine activity as Prometheus metrics on a
// private registry. Runs are short-lived, so metrics are exported with the
// node_exporter textfile format rather than served over HTTP.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rshade/clothgen/internal/engine/batch"
)

const namespace = "clothgen"

// Recorder implements batch.Recorder.
type Recorder struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal    *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	ItemsPending prometheus.Gauge

	// Item metrics
	ItemsTotal         *prometheus.CounterVec
	BackgroundDuration *prometheus.HistogramVec

	// Affine executor metrics
	DrainDuration prometheus.Histogram
	DrainClosures *prometheus.CounterVec
}

var _ batch.Recorder = (*Recorder)(nil)

// New creates a Recorder with every metric registered on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of batch runs by final status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Batch run wall time in seconds",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 300},
			},
		),
		ItemsPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "items_pending",
				Help:      "Items of the current run that have not reached a terminal state",
			},
		),
		ItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_total",
				Help:      "Total number of resolved items by state and error kind",
			},
			[]string{"state", "kind"},
		),
		BackgroundDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "background_duration_seconds",
				Help:      "Background phase duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"result"},
		),
		DrainDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "drain_duration_seconds",
				Help:      "Time spent inside one DrainOnce call",
				Buckets:   []float64{.0005, .001, .005, .01, .016, .033, .1},
			},
		),
		DrainClosures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "drain_closures_total",
				Help:      "Affine closures executed by result",
			},
			[]string{"result"},
		),
	}

	r.registry.MustRegister(
		r.RunsTotal,
		r.RunDuration,
		r.ItemsPending,
		r.ItemsTotal,
		r.BackgroundDuration,
		r.DrainDuration,
		r.DrainClosures,
	)
	return r
}

// Registry exposes the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RunStarted implements batch.Recorder.
func (r *Recorder) RunStarted(total int) {
	r.ItemsPending.Set(float64(total))
}

// ItemResolved implements batch.Recorder.
func (r *Recorder) ItemResolved(state batch.ItemState, kind batch.ErrorKind) {
	r.ItemsTotal.WithLabelValues(state.String(), string(kind)).Inc()
	r.ItemsPending.Dec()
}

// BackgroundObserved implements batch.Recorder.
func (r *Recorder) BackgroundObserved(d time.Duration, err error) {
	r.BackgroundDuration.WithLabelValues(resultLabel(err)).Observe(d.Seconds())
}

// RunFinished implements batch.Recorder.
func (r *Recorder) RunFinished(result *batch.BatchResult) {
	r.RunsTotal.WithLabelValues(string(result.Status)).Inc()
	if !result.FinishedAt.IsZero() {
		r.RunDuration.Observe(result.Duration().Seconds())
	}
	r.ItemsPending.Set(0)
}

// ObserveDrain is an executor drain observer.
func (r *Recorder) ObserveDrain(s batch.DrainStats) {
	if s.Skipped {
		return
	}
	r.DrainDuration.Observe(s.Duration.Seconds())
	r.DrainClosures.WithLabelValues("ok").Add(float64(s.Ran - s.Failed))
	r.DrainClosures.WithLabelValues("error").Add(float64(s.Failed))
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
