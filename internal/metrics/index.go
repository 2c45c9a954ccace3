package metrics

import "github.com/prometheus/client_golang/prometheus"

// Index lifecycle and query metrics.
var (
	BuildDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "build_documents_total",
			Help:      "Documents processed by index builds",
		},
		[]string{"status"},
	)

	ArchiveBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "archive_bytes",
			Help:      "Size of the last built or restored archive",
		},
		[]string{"stage"}, // "payload" / "compressed"
	)

	RestoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "restore_duration_seconds",
			Help:      "Archive restore duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"codec", "status"},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_requests_total",
			Help:      "Total number of index searches",
		},
		[]string{"mode", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds, query embedding included",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"mode"},
	)

	SearchHits = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_hits",
			Help:      "Number of hits returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"mode"},
	)

	ValidationCasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validation_cases_total",
			Help:      "Validation cases by outcome",
		},
		[]string{"result"}, // "pass" / "fail" / "error"
	)
)

var indexMetricsRegistered bool

// RegisterIndexMetrics registers build, restore, search and validation metrics. Must be called once from main.
func RegisterIndexMetrics() {
	if indexMetricsRegistered {
		return
	}
	prometheus.MustRegister(BuildDocumentsTotal)
	prometheus.MustRegister(ArchiveBytes)
	prometheus.MustRegister(RestoreDuration)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchHits)
	prometheus.MustRegister(ValidationCasesTotal)
	indexMetricsRegistered = true
}
