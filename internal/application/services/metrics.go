package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	enrichmentFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "holders_enrichment_failures_total",
			Help: "Holders omitted because their social profile could not be fetched",
		},
	)

	holdersCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "holders_cache_hits_total",
			Help: "Holder lists served from cache",
		},
	)

	frameViews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frame_views_total",
			Help: "Frame views built by screen",
		},
		[]string{"screen"},
	)
)
