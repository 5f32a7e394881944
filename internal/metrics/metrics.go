// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exposes the engine's Prometheus instrumentation:
// cache hit rates, analysis durations and interval counts, scraped at
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResultCacheHits counts composite responses served straight from
	// the on-disk cache.
	ResultCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_engine",
		Name:      "result_cache_hits_total",
		Help:      "Composite responses served from the on-disk result cache.",
	})

	// ResultCacheMisses counts composite responses that had to be
	// computed.
	ResultCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_engine",
		Name:      "result_cache_misses_total",
		Help:      "Composite responses recomputed because no active cache entry matched.",
	})

	// StreamCacheHits / StreamCacheMisses mirror the in-process cache
	// counters as monotonic series.
	StreamCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_engine",
		Name:      "stream_cache_hits_total",
		Help:      "Parsed-stream lookups answered from memory.",
	})
	StreamCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_engine",
		Name:      "stream_cache_misses_total",
		Help:      "Parsed-stream lookups that invoked the underlying loader.",
	})

	// AnalysisDuration observes the wall time of one full activity
	// analysis, labeled by source.
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "activity_engine",
		Name:      "analysis_duration_seconds",
		Help:      "Wall time of a full per-activity analytics run.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"source"})

	// IntervalsDetected observes how many intervals the detector
	// emitted per activity.
	IntervalsDetected = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "activity_engine",
		Name:      "intervals_detected",
		Help:      "Final interval count per analyzed activity.",
		Buckets:   prometheus.LinearBuckets(0, 5, 10),
	})
)
