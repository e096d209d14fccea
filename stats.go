package fangraph

import "sync/atomic"

// Stats holds process-lifetime counters for the scraping pipeline. All
// fields are atomics: producers update them without locks and observers may
// read them at any time without blocking anything.
type Stats struct {
	// ItemsQueued is the number of requests waiting in the input queue.
	ItemsQueued atomic.Int64

	// ItemsProcessing is the number of workers currently handling a request.
	ItemsProcessing atomic.Int64

	// ItemsCompleted counts requests a worker has finished with, whether
	// they succeeded or failed.
	ItemsCompleted atomic.Int64

	// ItemsDuplicate counts submissions suppressed by the seen-set.
	ItemsDuplicate atomic.Int64

	// WebRequests counts fetches reaching the gateway, cached or not.
	WebRequests atomic.Int64

	// CacheHits and CacheMisses partition WebRequests by cache outcome.
	CacheHits   atomic.Int64
	CacheMisses atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats suitable for display.
type StatsSnapshot struct {
	ItemsQueued     int64 `json:"itemsQueued"`
	ItemsProcessing int64 `json:"itemsProcessing"`
	ItemsCompleted  int64 `json:"itemsCompleted"`
	ItemsDuplicate  int64 `json:"itemsDuplicate"`
	WebRequests     int64 `json:"webRequests"`
	CacheHits       int64 `json:"cacheHits"`
	CacheMisses     int64 `json:"cacheMisses"`
}

// Snapshot returns a consistent-enough copy of the counters. Individual
// loads are atomic; the snapshot as a whole is advisory.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		ItemsQueued:     s.ItemsQueued.Load(),
		ItemsProcessing: s.ItemsProcessing.Load(),
		ItemsCompleted:  s.ItemsCompleted.Load(),
		ItemsDuplicate:  s.ItemsDuplicate.Load(),
		WebRequests:     s.WebRequests.Load(),
		CacheHits:       s.CacheHits.Load(),
		CacheMisses:     s.CacheMisses.Load(),
	}
}

// Idle reports whether no work is queued or in flight.
func (s *Stats) Idle() bool {
	return s.ItemsQueued.Load() == 0 && s.ItemsProcessing.Load() == 0
}
