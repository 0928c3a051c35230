// Package metrics defines all custom Prometheus metrics for the storefront
// API. It is the single source of truth for metric names, labels, and help
// strings.
//
// Metrics are registered with the default registry on package init via
// promauto; the HTTP layer exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// ── Cache metrics ─────────────────────────────────────────────────────────────

// CacheLookupsTotal counts catalog cache lookups.
// Label:
//   - result: "hit" or "miss" (an unreachable backend counts as a miss)
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of catalog cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// CacheInvalidationsTotal counts namespace invalidations issued after a catalog write.
// Label:
//   - result: "ok" or "failed"
var CacheInvalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_invalidations_total",
		Help:      "Total number of catalog cache invalidations, labelled by outcome.",
	},
	[]string{"result"},
)

// ── Catalog metrics ───────────────────────────────────────────────────────────

// CatalogWritesTotal counts confirmed catalog store writes.
// Label:
//   - op: "create", "update", "delete", or "rating"
var CatalogWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_writes_total",
		Help:      "Total number of confirmed catalog writes, by operation.",
	},
	[]string{"op"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthFailuresTotal counts requests rejected by the authorization pipeline.
// Label:
//   - reason: "missing", "invalid", "role", or "credentials"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected by authentication or authorization.",
	},
	[]string{"reason"},
)

// RateLimitedTotal counts requests rejected with 429.
// Label:
//   - tier: the limiter that rejected the request (e.g. "api", "login")
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by a rate limiter.",
	},
	[]string{"tier"},
)

// ── Rating metrics ────────────────────────────────────────────────────────────

// RatingQueueDepth tracks pending recompute jobs per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var RatingQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rating_queue_depth",
		Help:      "Current number of rating recompute jobs pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// RatingRecomputeDuration measures one aggregate recompute, from dequeue to catalog write.
// Label:
//   - result: "ok" or "error"
var RatingRecomputeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rating_recompute_duration_seconds",
		Help:      "Duration of product rating recomputation.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
