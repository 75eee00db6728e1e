// Package metric provides Prometheus metrics for geminid.
//
// Connection, handshake and response counters are kept in a Registry
// that also carries the Go runtime and process collectors. The content
// store registers its own gauges on the same registry via Prometheus().
//
// Metrics are exposed at /metrics in Prometheus text format.
package metric
