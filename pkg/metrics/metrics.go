// Package metrics provides Prometheus metrics for the price feed engine.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OracleRequestsTotal counts oracle queries by oracle type and outcome.
	OracleRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "Total number of oracle price requests",
		},
		[]string{"oracle", "status"},
	)

	// OracleRequestDuration is a histogram of oracle response latencies.
	OracleRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_request_duration_seconds",
			Help:    "Latency of oracle price requests",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"oracle"},
	)

	// PriceAggregationDuration is a histogram of price aggregation duration.
	PriceAggregationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "price_aggregation_duration_seconds",
			Help:    "Duration of price aggregation operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// ConsensusFailuresTotal counts aggregations that did not reach consensus.
	ConsensusFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_consensus_failures_total",
			Help: "Total number of aggregations without consensus",
		},
		[]string{"asset", "method"},
	)

	// AnomaliesTotal counts samples flagged by the anomaly detector.
	AnomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_anomalies_total",
			Help: "Total number of anomalous oracle samples",
		},
		[]string{"oracle"},
	)

	// CacheLookupsTotal counts cache reads by cache name and result.
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Total number of cache lookups",
		},
		[]string{"cache", "result"},
	)

	// AuditFetchesTotal counts audit database fetches by database and outcome.
	AuditFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_fetches_total",
			Help: "Total number of audit database fetches",
		},
		[]string{"database", "status"},
	)

	// HTTPRequestsTotal is a counter of total HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestDuration is a histogram of HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint"},
	)
)

var registerOnce sync.Once

// Init registers all metrics with the default Prometheus registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			OracleRequestsTotal,
			OracleRequestDuration,
			PriceAggregationDuration,
			ConsensusFailuresTotal,
			AnomaliesTotal,
			CacheLookupsTotal,
			AuditFetchesTotal,
			HTTPRequestsTotal,
			HTTPRequestDuration,
		)
	})
}

// ServeHTTP serves Prometheus metrics on the specified address and path.
func ServeHTTP(addr, path string) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server.ListenAndServe()
}

// RecordOracleRequest records the outcome and latency of one oracle query.
func RecordOracleRequest(oracle string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	OracleRequestsTotal.WithLabelValues(oracle, status).Inc()
	OracleRequestDuration.WithLabelValues(oracle).Observe(duration.Seconds())
}

// RecordAggregation records a price aggregation operation.
func RecordAggregation(method string, duration time.Duration) {
	PriceAggregationDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordConsensusFailure records an aggregation outside its consensus band.
func RecordConsensusFailure(asset, method string) {
	ConsensusFailuresTotal.WithLabelValues(asset, method).Inc()
}

// RecordAnomaly records an anomalous sample from an oracle.
func RecordAnomaly(oracle string) {
	AnomaliesTotal.WithLabelValues(oracle).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

// RecordAuditFetch records an audit database fetch.
func RecordAuditFetch(database string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	AuditFetchesTotal.WithLabelValues(database, status).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
