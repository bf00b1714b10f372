// Package metrics provides Prometheus metrics for the card ledger.
// Scrape these at /metrics for dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Aggregation Metrics
	ListingsAggregatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardledger_listings_aggregated_total",
			Help: "Total number of raw listings grouped into cards",
		},
	)

	ListingsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardledger_listings_skipped_total",
			Help: "Total number of malformed listings dropped during aggregation",
		},
	)

	UnknownRarityTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardledger_unknown_rarity_total",
			Help: "Rarity labels that did not canonicalize and passed through unchanged",
		},
	)

	CatalogIndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardledger_catalog_index_size",
			Help: "Number of name keys in the card metadata index",
		},
	)

	// Price History Metrics
	HistoryAppendsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardledger_history_appends_total",
			Help: "Total number of price points appended to history records",
		},
	)

	HistoryMergedPointsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardledger_history_merged_points_total",
			Help: "Total number of legacy price points merged into history records",
		},
	)

	// Price Worker Metrics
	PriceUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardledger_price_updates_total",
			Help: "Total number of collection entry prices updated",
		},
	)

	PriceUpdatesToday = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardledger_price_updates_today",
			Help: "Number of collection entry prices updated today (resets at midnight)",
		},
	)

	PriceBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardledger_price_batch_duration_seconds",
			Help:    "Time taken to process a price update batch",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// Upstream Pricing API Metrics
	PricingRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardledger_pricing_requests_total",
			Help: "Total number of upstream pricing API requests made",
		},
	)

	PricingQuotaRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardledger_pricing_quota_remaining",
			Help: "Remaining upstream pricing API requests for today",
		},
	)

	PricingQuotaLimit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardledger_pricing_quota_limit",
			Help: "Daily upstream pricing API request limit",
		},
	)

	PricingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardledger_pricing_cache_hits_total",
			Help: "Pricing response cache hit count",
		},
	)

	// Collection Metrics
	CollectionEntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardledger_collection_entries_total",
			Help: "Total number of cards in the collection",
		},
	)

	CollectionValueUSD = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardledger_collection_value_usd",
			Help: "Total estimated value of the collection in USD",
		},
	)
)
