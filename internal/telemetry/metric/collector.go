package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SnapshotCounter reports how many snapshots are stored.
type SnapshotCounter interface {
	Count() (int, error)
}

// Collector reports the stored snapshot count at scrape time, so the value
// is correct even for snapshots added or removed by hand.
type Collector struct {
	source SnapshotCounter
	stored *prometheus.Desc
	errors *prometheus.Desc
}

// NewCollector creates a collector reading counts from source.
func NewCollector(source SnapshotCounter) *Collector {
	return &Collector{
		source: source,
		stored: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "snapshot", "stored"),
			"Number of snapshots in the snapshots directory.",
			nil, nil,
		),
		errors: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "snapshot", "list_error"),
			"1 when the last scrape failed to list the snapshots directory.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.stored
	ch <- c.errors
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	n, err := c.source.Count()
	failed := 0.0
	if err != nil {
		failed = 1
	}
	ch <- prometheus.MustNewConstMetric(c.stored, prometheus.GaugeValue, float64(n))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.GaugeValue, failed)
}
