package kisan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts texts answered from the in-memory cache.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kisan_translation_cache_hits_total",
			Help: "Total number of translation cache hits",
		},
	)

	// CacheMisses counts texts that needed a provider call.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kisan_translation_cache_misses_total",
			Help: "Total number of translation cache misses",
		},
	)

	// ProviderRequests tracks provider round trips by kind and outcome.
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kisan_provider_requests_total",
			Help: "Total number of translation provider requests",
		},
		[]string{"kind", "outcome"}, // kind: "single", "batch"; outcome: "ok", "error"
	)

	// Fallbacks counts texts returned untranslated, by reason.
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kisan_translation_fallbacks_total",
			Help: "Total number of texts returned in the source language after a failure",
		},
		[]string{"reason"}, // "config", "provider", "protocol", "count_mismatch"
	)

	// InFlight is the number of keys currently awaiting a provider response.
	InFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kisan_translation_inflight",
			Help: "Number of translation keys awaiting a provider response",
		},
	)

	// SnapshotSaves tracks persistence writes by outcome.
	SnapshotSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kisan_snapshot_saves_total",
			Help: "Total number of translation cache snapshot writes",
		},
		[]string{"outcome"}, // "ok", "error"
	)
)
