package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics is the driver's run summary, pushed to Prometheus since the engine
// is a batch job rather than a scraped service. It counts files, samples
// and per-file durations only; masked-sample counts are not part of it and
// go to the provenance ledger instead. Grounded on the teacher's plotting
// tool's metrics registration pattern (app/plot/go.mod pulls in
// client_golang the same way: a private registry pushed at the end of a
// run, not scraped continuously).
type Metrics struct {
	registry    *prometheus.Registry
	filesTotal  prometheus.Counter
	samples     prometheus.Counter
	fileSeconds prometheus.Histogram
}

// NewMetrics returns a fresh, unregistered-with-the-default-registry set of
// run counters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		filesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "visioncolocate_files_processed_total",
			Help: "Number of observation files co-located in this run.",
		}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "visioncolocate_samples_processed_total",
			Help: "Number of observation samples co-located in this run.",
		}),
		fileSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "visioncolocate_file_duration_seconds",
			Help:    "Wall-clock time to co-locate one observation file.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.filesTotal, m.samples, m.fileSeconds)
	return m
}

// RecordFile accounts for one completed (successful) file.
func (m *Metrics) RecordFile(sampleCount int, d time.Duration) {
	m.filesTotal.Inc()
	m.samples.Add(float64(sampleCount))
	m.fileSeconds.Observe(d.Seconds())
}

// Push sends the accumulated counters to a Prometheus pushgateway, grouped
// under jobName. A no-op when url is empty.
func (m *Metrics) Push(url, jobName string) error {
	if url == "" {
		return nil
	}
	return push.New(url, jobName).Gatherer(m.registry).Push()
}
