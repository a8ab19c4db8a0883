// Package metrics exposes Prometheus collectors for the tracking subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Resolutions tracks detail resolutions by outcome (success|synthetic).
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vesselwatch_resolutions_total",
		Help: "Total detail resolutions, labeled by outcome.",
	}, []string{"outcome"})

	// CacheRequests tracks cache lookups by tier and result.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vesselwatch_cache_requests_total",
		Help: "Total cache lookups, labeled by tier (fast|durable) and result (hit|miss|expired).",
	}, []string{"tier", "result"})

	// GeofenceRejects tracks fallback coordinates discarded by the validator.
	GeofenceRejects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vesselwatch_geofence_rejects_total",
		Help: "Total candidate coordinates rejected by the geofence validator.",
	})

	// FetchRetries tracks navigation retries in the page fetcher.
	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vesselwatch_fetch_retries_total",
		Help: "Total page fetch navigation retries.",
	})

	// PreloadBatches tracks preload batches dispatched by the orchestrator.
	PreloadBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vesselwatch_preload_batches_total",
		Help: "Total preload batches dispatched.",
	})
)
