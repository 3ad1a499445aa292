package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queryRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athenaq_query_runs_total",
			Help: "Total number of query runs by terminal outcome.",
		},
		[]string{"state"},
	)
	statusPollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "athenaq_status_polls_total",
			Help: "Total number of execution status polls issued.",
		},
	)
	resultPagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "athenaq_result_pages_total",
			Help: "Total number of result pages fetched.",
		},
	)
	resultRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "athenaq_result_rows_total",
			Help: "Total number of result rows collected.",
		},
	)
	queryWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "athenaq_query_wait_seconds",
			Help:    "Wall-clock time spent waiting for a terminal execution state.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
	)
	dataScannedBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "athenaq_data_scanned_bytes",
			Help:    "Bytes scanned by the query service per run.",
			Buckets: prometheus.ExponentialBuckets(1024, 8, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(
		queryRunsTotal,
		statusPollsTotal,
		resultPagesTotal,
		resultRowsTotal,
		queryWaitSeconds,
		dataScannedBytes,
	)
}

func ObserveQueryRun(state string, scannedBytes int64, waited time.Duration) {
	queryRunsTotal.WithLabelValues(state).Inc()
	queryWaitSeconds.Observe(waited.Seconds())
	if scannedBytes > 0 {
		dataScannedBytes.Observe(float64(scannedBytes))
	}
}

func IncrementStatusPoll() {
	statusPollsTotal.Inc()
}

func ObserveResultPage(rows int) {
	resultPagesTotal.Inc()
	if rows > 0 {
		resultRowsTotal.Add(float64(rows))
	}
}
