// Package metrics defines Prometheus metrics for the medialocate tools.
//
// Metrics are registered with the default registry via promauto and exposed
// by the server's /metrics endpoint. The batch controller's own counters
// remain the authoritative per-run report; these metrics aggregate across
// runs of a long-lived process.
package metrics
