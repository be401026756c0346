// Package metrics provides Prometheus metrics for the card flip checker.
// Scrape these at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flip_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flip_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Lookup Metrics
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flip_lookups_total",
			Help: "Total number of card price lookups",
		},
		[]string{"result"}, // "success" or "failed"
	)

	MarketCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flip_market_cache_hits_total",
			Help: "Market stats cache hit count",
		},
	)

	MarketCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flip_market_cache_misses_total",
			Help: "Market stats cache miss count",
		},
	)

	// eBay API Metrics
	EbayRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flip_ebay_requests_total",
			Help: "Total number of eBay Finding API requests made",
		},
	)

	EbayRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flip_ebay_request_duration_seconds",
			Help:    "eBay Finding API call latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	EbayQuotaRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flip_ebay_quota_remaining",
			Help: "Remaining eBay API requests for today",
		},
	)

	EbayQuotaLimit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flip_ebay_quota_limit",
			Help: "Daily eBay API request limit",
		},
	)

	// Ledger Metrics
	LedgerRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flip_ledger_records_total",
			Help: "Total number of purchases recorded in the daily ledger",
		},
	)

	LedgerTodayProfit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flip_ledger_today_profit_usd",
			Help: "Recorded profit for the current day in USD",
		},
	)
)
