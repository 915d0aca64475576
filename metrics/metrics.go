// Package metrics exports Prometheus collectors for embedders that want
// engine heap figures and script execution counters on a scrape endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/isojs/isojs"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	// Heap metrics, fed from Isolate.GetHeapStatistics.
	HeapTotal        prometheus.Gauge
	HeapUsed         prometheus.Gauge
	HeapLimit        prometheus.Gauge
	HeapMalloced     prometheus.Gauge
	ContextsNative   prometheus.Gauge
	ContextsDetached prometheus.Gauge

	// Script metrics.
	ScriptsTotal   *prometheus.CounterVec
	ScriptDuration *prometheus.HistogramVec
	Terminations   prometheus.Counter

	startTime time.Time
	Uptime    prometheus.Gauge
}

// New creates a metrics collector registered against the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a metrics collector registered against reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),

		HeapTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "isojs_heap_total_bytes",
			Help: "Total heap size reserved by the engine",
		}),
		HeapUsed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "isojs_heap_used_bytes",
			Help: "Heap bytes currently in use",
		}),
		HeapLimit: factory.NewGauge(prometheus.GaugeOpts{
			Name: "isojs_heap_limit_bytes",
			Help: "Configured heap size limit, 0 when unlimited",
		}),
		HeapMalloced: factory.NewGauge(prometheus.GaugeOpts{
			Name: "isojs_heap_malloced_bytes",
			Help: "Bytes handed out by the allocator",
		}),
		ContextsNative: factory.NewGauge(prometheus.GaugeOpts{
			Name: "isojs_contexts_native",
			Help: "Open contexts in the observed isolate",
		}),
		ContextsDetached: factory.NewGauge(prometheus.GaugeOpts{
			Name: "isojs_contexts_detached",
			Help: "Contexts closed over the isolate's lifetime",
		}),

		ScriptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "isojs_scripts_total",
				Help: "Scripts executed, partitioned by outcome",
			},
			[]string{"status"},
		),
		ScriptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "isojs_script_duration_seconds",
				Help:    "Script execution duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		Terminations: factory.NewCounter(prometheus.CounterOpts{
			Name: "isojs_terminations_total",
			Help: "Forced execution terminations",
		}),

		Uptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "isojs_uptime_seconds",
			Help: "Process uptime",
		}),
	}
	return m
}

// ObserveHeap pushes one heap statistics sample into the gauges.
func (m *Metrics) ObserveHeap(stats isojs.HeapStatistics) {
	m.HeapTotal.Set(float64(stats.TotalHeapSize))
	m.HeapUsed.Set(float64(stats.UsedHeapSize))
	m.HeapLimit.Set(float64(stats.HeapSizeLimit))
	m.HeapMalloced.Set(float64(stats.MallocedMemory))
	m.ContextsNative.Set(float64(stats.NumberOfNativeContexts))
	m.ContextsDetached.Set(float64(stats.NumberOfDetachedContexts))
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordRun records one script execution outcome.
func (m *Metrics) RecordRun(duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		if isojs.IsTerminationError(err) {
			m.Terminations.Inc()
			status = "terminated"
		}
	}
	m.ScriptsTotal.WithLabelValues(status).Inc()
	m.ScriptDuration.WithLabelValues(status).Observe(duration.Seconds())
}
