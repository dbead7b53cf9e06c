package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aleph-Alpha/recordkey/v1/observability"
)

// Metrics exposes operation metrics over HTTP and implements
// observability.Observer so components can report into it.
type Metrics struct {
	// Server serves the registry on /metrics.
	Server *http.Server

	// Registry holds every metric of this instance.
	Registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationBytes    *prometheus.HistogramVec
}

var _ observability.Observer = (*Metrics)(nil)

// NewMetrics creates the registry, registers the operation metrics and
// prepares (but does not start) the HTTP server.
//
// Metrics:
//   - operations_total{component, operation, status, error_kind}
//   - operation_duration_seconds{component, operation}
//   - operation_bytes{component, operation}
func NewMetrics(cfg Config) *Metrics {
	if cfg.Address == "" {
		cfg.Address = DefaultMetricsAddress
	}

	registry := prometheus.NewRegistry()

	var wrapped prometheus.Registerer = registry
	if cfg.ServiceName != "" {
		wrapped = prometheus.WrapRegistererWith(prometheus.Labels{"service": cfg.ServiceName}, registry)
	}

	m := &Metrics{
		Registry: registry,
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "operations_total",
			Help:      "Total number of observed operations by outcome.",
		}, []string{"component", "operation", "status", "error_kind"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of observed operations in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"component", "operation"}),
		operationBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "operation_bytes",
			Help:      "Size in bytes of the payload of observed operations.",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 8),
		}, []string{"component", "operation"}),
	}

	wrapped.MustRegister(m.operationsTotal, m.operationDuration, m.operationBytes)

	if cfg.EnableDefaultCollectors {
		wrapped.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}
	return m
}
