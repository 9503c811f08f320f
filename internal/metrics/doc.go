// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Records read, skipped by reason, and classified by message kind
//   - Events emitted by kind
//   - Ingest lag between record receipt and classification
//   - Writer flushes and failures
//
// The HTTP handler serves the metrics path together with /health.
package metrics
