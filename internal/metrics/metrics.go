// Package metrics defines and registers all Prometheus metrics of the dirwalk CLI.
package metrics

import (
	"net/http"
	"time"

	"github.com/bsm/dirwalk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Latency histogram buckets (seconds).
var defBuckets = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// ---- Generation metrics ----

// EntriesWritten counts entries written to stores.
var EntriesWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "dirwalk_entries_written_total",
	Help: "Entries written by layout and store.",
}, []string{"layout", "store"})

// BatchFlushes counts batch writes.
var BatchFlushes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "dirwalk_batch_flushes_total",
	Help: "Batch writes by layout, store, and whether the write was forced.",
}, []string{"layout", "store", "forced"})

// BatchBytes counts key and value bytes written in batches.
var BatchBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "dirwalk_batch_bytes_total",
	Help: "Key and value bytes written by layout and store.",
}, []string{"layout", "store"})

// ValueSize records the encoded value size.
var ValueSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "dirwalk_value_size_bytes",
	Help: "Encoded value size by layout.",
}, []string{"layout"})

// ---- Query metrics ----

// Walks counts random walks.
var Walks = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "dirwalk_walks_total",
	Help: "Random walks by layout, store, and result.",
}, []string{"layout", "store", "result"})

// WalkSteps counts successful lookups of random walks.
var WalkSteps = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "dirwalk_walk_steps_total",
	Help: "Successful lookups by layout and store.",
}, []string{"layout", "store"})

// WalkDuration records random walk latency.
var WalkDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dirwalk_walk_duration_seconds",
	Help:    "Random walk latency in seconds.",
	Buckets: defBuckets,
}, []string{"layout", "store"})

// registry is the custom prometheus registry (avoids default Go collector noise).
var registry = prometheus.NewRegistry()

func init() {
	// Generation
	registry.MustRegister(EntriesWritten)
	registry.MustRegister(BatchFlushes)
	registry.MustRegister(BatchBytes)
	registry.MustRegister(ValueSize)
	// Query
	registry.MustRegister(Walks)
	registry.MustRegister(WalkSteps)
	registry.MustRegister(WalkDuration)
}

// Handler returns an http.Handler that serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveFlush returns a dirwalk.GeneratorOptions.OnFlush callback which
// records batch writes of a layout and store.
func ObserveFlush(layout, store string) func(dirwalk.FlushInfo) {
	entries := EntriesWritten.WithLabelValues(layout, store)
	bytes := BatchBytes.WithLabelValues(layout, store)

	return func(fi dirwalk.FlushInfo) {
		forced := "false"
		if fi.Forced {
			forced = "true"
		}
		BatchFlushes.WithLabelValues(layout, store, forced).Inc()
		entries.Add(float64(fi.Entries))
		bytes.Add(float64(fi.Bytes))
	}
}

// ObserveWalk records the outcome of a single walk.
func ObserveWalk(layout, store string, steps int, err error, took time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	Walks.WithLabelValues(layout, store, result).Inc()
	WalkSteps.WithLabelValues(layout, store).Add(float64(steps))
	WalkDuration.WithLabelValues(layout, store).Observe(took.Seconds())
}
