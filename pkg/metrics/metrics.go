// Package metrics provides Prometheus metrics for the oracle feed and pricing API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FeedTicksTotal is a counter of polling ticks by outcome.
	FeedTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_feed_ticks_total",
			Help: "Total number of oracle feed polling ticks",
		},
		[]string{"account", "result"},
	)

	// QuotePrice is a gauge of the last quote price pushed by a feed.
	QuotePrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oracle_quote_price",
			Help: "Price of the last quote pushed to subscribers",
		},
		[]string{"account"},
	)

	// QuoteConfidence is a gauge of the last quote confidence pushed by a feed.
	QuoteConfidence = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oracle_quote_confidence",
			Help: "Confidence of the last quote pushed to subscribers",
		},
		[]string{"account"},
	)

	// SubscriberNotificationsTotal is a counter of callback invocations.
	SubscriberNotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_subscriber_notifications_total",
			Help: "Total number of subscriber callback invocations",
		},
		[]string{"account", "status"},
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

	// AggregationSourcesTotal counts price updates considered by aggregation.
	AggregationSourcesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_aggregation_sources_total",
			Help: "Price updates considered during aggregation, by validity",
		},
		[]string{"method", "validity"},
	)

	// OutlierRejectionsTotal is a counter of rejected outlier prices.
	OutlierRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "outlier_rejections_total",
			Help: "Total number of outlier prices rejected",
		},
	)

	// CacheWritesTotal counts latest-quote cache writes.
	CacheWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_cache_writes_total",
			Help: "Total number of quote cache writes",
		},
		[]string{"status"},
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

	// WebSocketClients is a gauge of connected WebSocket clients.
	WebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Number of connected WebSocket clients",
		},
	)
)

// Init initializes Prometheus metrics registry.
func Init() {
	prometheus.MustRegister(
		FeedTicksTotal,
		QuotePrice,
		QuoteConfidence,
		SubscriberNotificationsTotal,
		PriceAggregationDuration,
		AggregationSourcesTotal,
		OutlierRejectionsTotal,
		CacheWritesTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		WebSocketClients,
	)
}

// ServeHTTP serves Prometheus metrics on the specified address and path.
func ServeHTTP(addr, path string) error {
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

// RecordTick records the outcome of one feed polling tick.
func RecordTick(account, result string) {
	FeedTicksTotal.WithLabelValues(account, result).Inc()
}

// RecordQuote records the last quote pushed by a feed.
func RecordQuote(account string, price, confidence float64) {
	QuotePrice.WithLabelValues(account).Set(price)
	QuoteConfidence.WithLabelValues(account).Set(confidence)
}

// RecordNotification records a single subscriber callback invocation.
func RecordNotification(account string, ok bool) {
	status := "ok"
	if !ok {
		status = "panic"
	}
	SubscriberNotificationsTotal.WithLabelValues(account, status).Inc()
}

// RecordAggregation records a price aggregation operation.
func RecordAggregation(method string, duration time.Duration) {
	PriceAggregationDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordAggregationSources records how many updates were accepted and rejected.
func RecordAggregationSources(method string, valid, rejected int) {
	AggregationSourcesTotal.WithLabelValues(method, "valid").Add(float64(valid))
	AggregationSourcesTotal.WithLabelValues(method, "rejected").Add(float64(rejected))
}

// RecordOutlierRejection records an outlier rejection.
func RecordOutlierRejection() {
	OutlierRejectionsTotal.Inc()
}

// RecordCacheWrite records a latest-quote cache write.
func RecordCacheWrite(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	CacheWritesTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// SetWebSocketClients records the current number of WebSocket clients.
func SetWebSocketClients(n int) {
	WebSocketClients.Set(float64(n))
}
