// Package metrics exposes Prometheus collectors for a check run.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	linksCheckedTotal    *prometheus.CounterVec
	fetchDurationSeconds *prometheus.HistogramVec
	retriesTotal         *prometheus.CounterVec
	activeFetches        prometheus.Gauge
	crawlDurationSeconds prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors. It is safe to call
// multiple times.
func Init() {
	once.Do(func() {
		linksCheckedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linksweep_links_checked_total",
				Help: "Total number of links checked, labeled by site and terminal state.",
			},
			[]string{"site", "state"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linksweep_fetch_duration_seconds",
				Help:    "Histogram of individual fetch latencies, labeled by method.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method"},
		)

		retriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linksweep_retries_total",
				Help: "Total number of retry attempts, labeled by reason (retry_after, no_header, error).",
			},
			[]string{"reason"},
		)

		activeFetches = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "linksweep_active_fetches",
				Help: "Number of fetches currently in flight.",
			},
		)

		crawlDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "linksweep_crawl_duration_seconds",
				Help:    "Histogram of whole-crawl wall-clock durations.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
		)
	})
}

// SanitizeSite extracts a lowercase hostname from a URL, for use as a low-
// cardinality metric label. It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics, for
// embedding in a diagnostics server when one is running.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveLink records a link's terminal state.
func ObserveLink(rawURL, state string) {
	linksCheckedTotal.WithLabelValues(SanitizeSite(rawURL), state).Inc()
}

// ObserveFetch records the latency of a single HTTP attempt.
func ObserveFetch(method string, d time.Duration) {
	fetchDurationSeconds.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveRetry increments the retry counter for reason.
func ObserveRetry(reason string) {
	retriesTotal.WithLabelValues(reason).Inc()
}

// IncActiveFetches increments the in-flight fetch gauge.
func IncActiveFetches() {
	activeFetches.Inc()
}

// DecActiveFetches decrements the in-flight fetch gauge.
func DecActiveFetches() {
	activeFetches.Dec()
}

// ObserveCrawlDuration records the wall-clock duration of a whole crawl.
func ObserveCrawlDuration(d time.Duration) {
	crawlDurationSeconds.Observe(d.Seconds())
}
