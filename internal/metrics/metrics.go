// Package metrics exposes Prometheus collectors for the log analyser.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	linesTotal         prometheus.Counter
	parseErrorsTotal   prometheus.Counter
	documentsTotal     *prometheus.CounterVec
	runsTotal          *prometheus.CounterVec
	runDurationSeconds prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		linesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loganalyser_lines_total",
				Help: "Total number of crawl log lines mapped.",
			},
		)

		parseErrorsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loganalyser_parse_errors_total",
				Help: "Total number of log lines rejected by the 12-field schema.",
			},
		)

		documentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loganalyser_documents_total",
				Help: "Total number of watched documents extracted, labeled by source.",
			},
			[]string{"source"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loganalyser_runs_total",
				Help: "Total number of analysis runs, labeled by outcome.",
			},
			[]string{"status"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "loganalyser_run_duration_seconds",
				Help:    "Histogram of end-to-end analysis run durations.",
				Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveLine counts one successfully mapped log line.
func ObserveLine() {
	if linesTotal == nil {
		return
	}
	linesTotal.Inc()
}

// ObserveParseError counts one schema-violating log line.
func ObserveParseError() {
	if parseErrorsTotal == nil {
		return
	}
	parseErrorsTotal.Inc()
}

// ObserveDocument counts one extracted document for a source tag.
func ObserveDocument(source string) {
	if documentsTotal == nil {
		return
	}
	documentsTotal.WithLabelValues(source).Inc()
}

// ObserveRun records one finished run and its duration.
func ObserveRun(status string, seconds float64) {
	if runsTotal == nil {
		return
	}
	runsTotal.WithLabelValues(status).Inc()
	runDurationSeconds.Observe(seconds)
}
