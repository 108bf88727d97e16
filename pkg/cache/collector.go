package cache

import "github.com/prometheus/client_golang/prometheus"

// MetricsSource is anything that can report a metrics snapshot
type MetricsSource interface {
	GetSnapshot() MetricsSnapshot
}

// Collector exposes cache metrics to Prometheus.
// Values are read from the source on every scrape.
type Collector struct {
	source MetricsSource

	hits       *prometheus.Desc
	misses     *prometheus.Desc
	errors     *prometheus.Desc
	operations *prometheus.Desc
	latency    *prometheus.Desc
	malformed  *prometheus.Desc
	collisions *prometheus.Desc
}

// NewCollector creates a collector reading from source
func NewCollector(namespace string, source MetricsSource) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", name), help, labels, nil)
	}

	return &Collector{
		source:     source,
		hits:       desc("hits_total", "Total number of fresh or stale entries found"),
		misses:     desc("misses_total", "Total number of lookups that found no entry"),
		errors:     desc("errors_total", "Total number of failed cache operations"),
		operations: desc("operations_total", "Total number of cache operations", "operation"),
		latency:    desc("operation_latency_seconds", "Average cache operation latency", "operation"),
		malformed:  desc("malformed_entries_total", "Total number of undecodable payloads"),
		collisions: desc("query_collisions_total", "Total number of query hash collisions"),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.errors
	ch <- c.operations
	ch <- c.latency
	ch <- c.malformed
	ch <- c.collisions
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.GetSnapshot()

	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.CacheHits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.CacheMisses))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.CacheErrors))

	ch <- prometheus.MustNewConstMetric(c.operations, prometheus.CounterValue, float64(s.GetOperations), "get")
	ch <- prometheus.MustNewConstMetric(c.operations, prometheus.CounterValue, float64(s.SetOperations), "set")
	ch <- prometheus.MustNewConstMetric(c.operations, prometheus.CounterValue, float64(s.RemoveOperations), "remove")
	ch <- prometheus.MustNewConstMetric(c.operations, prometheus.CounterValue, float64(s.ClearOperations), "clear")

	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, s.AvgGetLatency.Seconds(), "get")
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, s.AvgSetLatency.Seconds(), "set")
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, s.AvgRemoveLatency.Seconds(), "remove")

	ch <- prometheus.MustNewConstMetric(c.malformed, prometheus.CounterValue, float64(s.MalformedEntries))
	ch <- prometheus.MustNewConstMetric(c.collisions, prometheus.CounterValue, float64(s.QueryCollisions))
}
