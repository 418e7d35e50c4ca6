// Registers:
//
//	#Salesflow_rows_normalized_total
//	#Salesflow_rows_skipped_total
//	#Salesflow_runs_total
//	#Salesflow_feed_fetches_total
//	#go_* and process_* system metrics
//
// Exposes them on the configured address using the Prometheus HTTP handler.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once           sync.Once
	rowsNormalized prometheus.Counter
	rowsSkipped    prometheus.Counter
	runs           *prometheus.CounterVec
	feedFetches    *prometheus.CounterVec
)

func Init(address string) {
	once.Do(func() {
		rowsNormalized = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "Salesflow_rows_normalized_total",
			Help: "Number of raw feed rows normalized into the client collection",
		})
		rowsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "Salesflow_rows_skipped_total",
			Help: "Number of raw feed rows dropped during coercion",
		})
		runs = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "Salesflow_runs_total",
				Help: "Number of normalization runs by outcome",
			},
			[]string{"status"},
		)
		feedFetches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "Salesflow_feed_fetches_total",
				Help: "Number of successful upstream feed fetches",
			},
			[]string{"feed"},
		)

		_ = prometheus.Register(rowsNormalized)
		_ = prometheus.Register(rowsSkipped)
		_ = prometheus.Register(runs)
		_ = prometheus.Register(feedFetches)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		if address == "" {
			address = "0.0.0.0:2112"
		}
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(address, nil); err != nil {
				panic("metrics server failed: " + err.Error())
			}
		}()
	})
}

// AddRowsNormalized increases the normalized rows counter.
func AddRowsNormalized(n int) {
	if rowsNormalized != nil && n > 0 {
		rowsNormalized.Add(float64(n))
	}
}

// AddRowsSkipped increases the skipped rows counter.
func AddRowsSkipped(n int) {
	if rowsSkipped != nil && n > 0 {
		rowsSkipped.Add(float64(n))
	}
}

// IncrementRun increases the run counter for the given outcome.
func IncrementRun(status string) {
	if runs != nil {
		runs.WithLabelValues(status).Inc()
	}
}

// IncrementFeedFetch increases the fetch counter for a given feed.
func IncrementFeedFetch(feed string) {
	if feedFetches != nil {
		feedFetches.WithLabelValues(feed).Inc()
	}
}
