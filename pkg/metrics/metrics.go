// Package metrics exposes snapshot build statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "procwatch"

// Recorder implements snapshot.Observer on top of Prometheus collectors.
type Recorder struct {
	BuildDuration prometheus.Histogram
	Processes     prometheus.Gauge
	Skipped       prometheus.Gauge
	Sequence      prometheus.Gauge
	Batches       prometheus.Counter
	BatchSize     prometheus.Histogram
	ProbeMisses   *prometheus.CounterVec
	EnumFailures  prometheus.Counter
	Interrupted   prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewRecorder registers the collectors on reg. A nil reg uses a fresh
// registry, which keeps repeated calls (tests, multiple builders) apart.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Recorder{
		BuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_build_seconds",
			Help:      "Wall time of one snapshot build",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10},
		}),
		Processes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_processes",
			Help:      "Records in the latest snapshot",
		}),
		Skipped: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_skipped_processes",
			Help:      "Processes left out of the latest snapshot by the cap",
		}),
		Sequence: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_sequence",
			Help:      "Sequence number of the latest snapshot",
		}),
		Batches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_batches_total",
			Help:      "Probe batches started",
		}),
		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_batch_size",
			Help:      "Processes per probe batch",
			Buckets:   prometheus.LinearBuckets(10, 10, 5),
		}),
		ProbeMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_misses_total",
			Help:      "Probe calls that returned nothing, by probe",
		}, []string{"probe"}),
		EnumFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enumeration_failures_total",
			Help:      "Snapshot builds that could not list processes",
		}),
		Interrupted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_interrupted_total",
			Help:      "Snapshot builds abandoned by cancellation",
		}),
		gatherer: reg,
	}
}

func (r *Recorder) BatchStarted(size int) {
	r.Batches.Inc()
	r.BatchSize.Observe(float64(size))
}

func (r *Recorder) ProbeMissed(probe string) {
	r.ProbeMisses.WithLabelValues(probe).Inc()
}

func (r *Recorder) EnumerationFailed(error) {
	r.EnumFailures.Inc()
}

// SnapshotBuilt records a finished build. Failed and interrupted builds are
// counted but leave the gauges at the last published snapshot.
func (r *Recorder) SnapshotBuilt(s process.Snapshot, took time.Duration) {
	r.BuildDuration.Observe(took.Seconds())
	switch {
	case s.Failed():
		return
	case s.Err != nil:
		r.Interrupted.Inc()
		return
	}
	r.Processes.Set(float64(s.Len()))
	r.Skipped.Set(float64(s.Skipped))
	r.Sequence.Set(float64(s.Seq))
}

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
