package cache

import (
	"sync/atomic"
	"time"
)

// Metrics tracks cache performance statistics.
// A nil *Metrics records nothing and reports a zero snapshot.
type Metrics struct {
	// Cache hit/miss counters
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
	cacheErrors atomic.Uint64

	// Operation counters
	getOperations    atomic.Uint64
	setOperations    atomic.Uint64
	removeOperations atomic.Uint64
	clearOperations  atomic.Uint64

	// Timing metrics (in nanoseconds)
	totalGetLatency    atomic.Uint64
	totalSetLatency    atomic.Uint64
	totalRemoveLatency atomic.Uint64

	// Entry integrity
	malformedEntries atomic.Uint64
	queryCollisions  atomic.Uint64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordCacheHit increments cache hit counter
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Add(1)
}

// RecordCacheMiss increments cache miss counter
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Add(1)
}

// RecordCacheError increments cache error counter
func (m *Metrics) RecordCacheError() {
	if m == nil {
		return
	}
	m.cacheErrors.Add(1)
}

// RecordGet records a get operation with latency
func (m *Metrics) RecordGet(duration time.Duration) {
	if m == nil {
		return
	}
	m.getOperations.Add(1)
	m.totalGetLatency.Add(uint64(duration.Nanoseconds()))
}

// RecordSet records a set operation with latency
func (m *Metrics) RecordSet(duration time.Duration) {
	if m == nil {
		return
	}
	m.setOperations.Add(1)
	m.totalSetLatency.Add(uint64(duration.Nanoseconds()))
}

// RecordRemove records a remove operation with latency
func (m *Metrics) RecordRemove(duration time.Duration) {
	if m == nil {
		return
	}
	m.removeOperations.Add(1)
	m.totalRemoveLatency.Add(uint64(duration.Nanoseconds()))
}

// RecordClear increments the flush counter
func (m *Metrics) RecordClear() {
	if m == nil {
		return
	}
	m.clearOperations.Add(1)
}

// RecordMalformed increments the undecodable payload counter
func (m *Metrics) RecordMalformed() {
	if m == nil {
		return
	}
	m.malformedEntries.Add(1)
}

// RecordCollision increments the query hash collision counter
func (m *Metrics) RecordCollision() {
	if m == nil {
		return
	}
	m.queryCollisions.Add(1)
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := m.cacheHits.Load()
	misses := m.cacheMisses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	getOps := m.getOperations.Load()
	setOps := m.setOperations.Load()
	removeOps := m.removeOperations.Load()

	var avgGetLatency, avgSetLatency, avgRemoveLatency time.Duration
	if getOps > 0 {
		avgGetLatency = time.Duration(m.totalGetLatency.Load() / getOps)
	}
	if setOps > 0 {
		avgSetLatency = time.Duration(m.totalSetLatency.Load() / setOps)
	}
	if removeOps > 0 {
		avgRemoveLatency = time.Duration(m.totalRemoveLatency.Load() / removeOps)
	}

	return MetricsSnapshot{
		CacheHits:        hits,
		CacheMisses:      misses,
		CacheErrors:      m.cacheErrors.Load(),
		CacheHitRate:     hitRate,
		GetOperations:    getOps,
		SetOperations:    setOps,
		RemoveOperations: removeOps,
		ClearOperations:  m.clearOperations.Load(),
		AvgGetLatency:    avgGetLatency,
		AvgSetLatency:    avgSetLatency,
		AvgRemoveLatency: avgRemoveLatency,
		MalformedEntries: m.malformedEntries.Load(),
		QueryCollisions:  m.queryCollisions.Load(),
	}
}

// Reset resets all metrics counters
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.cacheErrors.Store(0)
	m.getOperations.Store(0)
	m.setOperations.Store(0)
	m.removeOperations.Store(0)
	m.clearOperations.Store(0)
	m.totalGetLatency.Store(0)
	m.totalSetLatency.Store(0)
	m.totalRemoveLatency.Store(0)
	m.malformedEntries.Store(0)
	m.queryCollisions.Store(0)
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	// Cache metrics
	CacheHits    uint64
	CacheMisses  uint64
	CacheErrors  uint64
	CacheHitRate float64 // Percentage

	// Operation counts
	GetOperations    uint64
	SetOperations    uint64
	RemoveOperations uint64
	ClearOperations  uint64

	// Latency metrics
	AvgGetLatency    time.Duration
	AvgSetLatency    time.Duration
	AvgRemoveLatency time.Duration

	MalformedEntries uint64
	QueryCollisions  uint64
}
