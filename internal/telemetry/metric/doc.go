// Package metric provides Prometheus metrics for worldsnap.
//
//   - prometheus.go: registry, instruments and the /metrics handler
//   - collector.go: scrape-time collector for the stored snapshot count
//
// All Registry methods are safe on a nil receiver so components can run
// without metrics in tests.
package metric
