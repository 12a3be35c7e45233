// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetchedTotal      *prometheus.CounterVec
	cacheLookupsTotal      *prometheus.CounterVec
	throttleDelaySeconds   *prometheus.HistogramVec
	retryAttemptsTotal     *prometheus.CounterVec
	listingsExtractedTotal *prometheus.CounterVec
	listingsSkippedTotal   *prometheus.CounterVec
	recordsUpsertedTotal   *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors with the default registry. It is safe to
// call multiple times.
func Init() {
	once.Do(func() {
		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yagaami_pages_fetched_total",
				Help: "Pages fetched through the request client, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yagaami_cache_lookups_total",
				Help: "Response cache lookups, labeled by result (hit/miss).",
			},
			[]string{"result"},
		)

		throttleDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yagaami_throttle_delay_seconds",
				Help:    "Time spent waiting on the per-source rate limiter.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"source"},
		)

		retryAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yagaami_retry_attempts_total",
				Help: "Fetch retry attempts, labeled by reason.",
			},
			[]string{"reason"},
		)

		listingsExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yagaami_listings_extracted_total",
				Help: "Listings successfully extracted, labeled by source.",
			},
			[]string{"source"},
		)

		listingsSkippedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yagaami_listings_skipped_total",
				Help: "Listings skipped because of a per-listing failure, labeled by source.",
			},
			[]string{"source"},
		)

		recordsUpsertedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yagaami_records_upserted_total",
				Help: "Normalized records handed to the record store, labeled by source.",
			},
			[]string{"source"},
		)
	})
}

// PageFetched counts one fetch outcome ("ok", "cache", "failed").
func PageFetched(source, outcome string) {
	if pagesFetchedTotal != nil {
		pagesFetchedTotal.WithLabelValues(source, outcome).Inc()
	}
}

// CacheLookup counts one cache lookup result.
func CacheLookup(hit bool) {
	if cacheLookupsTotal == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveThrottleDelay records time spent blocked on the rate limiter.
func ObserveThrottleDelay(source string, d time.Duration) {
	if throttleDelaySeconds != nil {
		throttleDelaySeconds.WithLabelValues(source).Observe(d.Seconds())
	}
}

// RetryAttempt counts one retry, labeled by its trigger ("transient" or "rate_limited").
func RetryAttempt(reason string) {
	if retryAttemptsTotal != nil {
		retryAttemptsTotal.WithLabelValues(reason).Inc()
	}
}

// ListingExtracted counts one successfully extracted listing.
func ListingExtracted(source string) {
	if listingsExtractedTotal != nil {
		listingsExtractedTotal.WithLabelValues(source).Inc()
	}
}

// ListingSkipped counts one listing dropped by an isolated failure.
func ListingSkipped(source string) {
	if listingsSkippedTotal != nil {
		listingsSkippedTotal.WithLabelValues(source).Inc()
	}
}

// RecordUpserted counts one record handed to the external store.
func RecordUpserted(source string) {
	if recordsUpsertedTotal != nil {
		recordsUpsertedTotal.WithLabelValues(source).Inc()
	}
}
