package observability

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsExporter re-exposes the flat metrics file's counters as Prometheus
// counters on an optional HTTP listener. The metrics file remains the source
// of truth; this is an additive read-only view of it, scraped on demand
// rather than pushed, so it can never fall out of sync with what
// --observability-report prints.
type MetricsExporter struct {
	store *Store
	desc  *prometheus.Desc
}

// NewMetricsExporter returns an exporter reading store's metrics file on
// every scrape.
func NewMetricsExporter(store *Store) *MetricsExporter {
	return &MetricsExporter{
		store: store,
		desc: prometheus.NewDesc(
			"curudroid_metric",
			"A counter from the flat observability metrics file, by name.",
			[]string{"name"},
			nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (e *MetricsExporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.desc
}

// Collect implements prometheus.Collector. A failure to read the metrics
// file yields zero collected metrics rather than an error, matching the
// store's own corruption-tolerant contract.
func (e *MetricsExporter) Collect(ch chan<- prometheus.Metric) {
	metrics, err := e.store.LoadMetrics()
	if err != nil {
		slog.Warn("metrics exporter could not load metrics file", "error", err)
		return
	}
	for name, value := range metrics {
		ch <- prometheus.MustNewConstMetric(e.desc, prometheus.CounterValue, float64(value), name)
	}
}

// ServeMetrics starts a blocking HTTP server exposing exporter on /metrics
// at addr. Intended to run in its own goroutine; returns when the listener
// fails or the process is killed.
func ServeMetrics(addr string, exporter *MetricsExporter) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(exporter); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	slog.Info("metrics listener starting", "addr", addr)
	return http.ListenAndServe(addr, mux)
}
