package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var CacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "storyviewer_cache_requests_total",
	Help: "Ensure calls by how they were satisfied (hit, disk, dedup, fetch).",
}, []string{"outcome"})
var CacheFetchFailures = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "storyviewer_cache_fetch_failures_total",
})
var CacheBytesMirrored = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "storyviewer_cache_bytes_mirrored_total",
})
var CachePurged = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "storyviewer_cache_purged_files_total",
})
var CacheInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "storyviewer_cache_in_flight_fetches",
})
var LifecycleEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "storyviewer_lifecycle_events_total",
	Help: "Load lifecycle transitions (start, spinner, ready, timeout, retry, failed).",
}, []string{"event"})
var TransitionsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "storyviewer_transitions_total",
}, []string{"kind"})

func init() {
	prometheus.MustRegister(CacheRequests)
	prometheus.MustRegister(CacheFetchFailures)
	prometheus.MustRegister(CacheBytesMirrored)
	prometheus.MustRegister(CachePurged)
	prometheus.MustRegister(CacheInFlight)
	prometheus.MustRegister(LifecycleEvents)
	prometheus.MustRegister(TransitionsCompleted)
}
