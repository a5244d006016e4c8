package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "karaoke",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	SourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "source_requests_total",
		Help:      "Total search calls to data sources by source name and result status.",
	}, []string{"source", "status"})

	SourceRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "karaoke",
		Name:      "source_request_duration_seconds",
		Help:      "Data source search duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 20},
	}, []string{"source"})

	ImportRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "import_runs_total",
		Help:      "Total feed import runs by source and outcome.",
	}, []string{"source", "status"})

	ImportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "import_rows_total",
		Help:      "Feed rows processed by source and disposition.",
	}, []string{"source", "disposition"})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "search_cache_hits_total",
		Help:      "Total number of search cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "karaoke",
		Name:      "search_cache_misses_total",
		Help:      "Total number of search cache misses.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SourceRequestsTotal,
		SourceRequestDuration,
		ImportRunsTotal,
		ImportRowsTotal,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}
