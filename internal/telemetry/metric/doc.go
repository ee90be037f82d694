// Package metric provides Prometheus metrics for rudis.
//
//   - prometheus.go: registry construction and the /metrics handler
//   - server.go: reactor and connection metrics
//   - collector.go: build info and uptime collector
//
// Every ServerMetrics method is safe to call on a nil receiver, so code paths
// that run without metrics need no guards.
package metric
