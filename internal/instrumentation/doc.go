// Package instrumentation provides OpenTelemetry-based metrics for driveway.
//
// The Provider wraps an OpenTelemetry meter provider configured with either
// a Prometheus exporter (scraped via the dedicated metrics server) or a
// stdout exporter for development. The Metrics recorder exposes typed
// recording methods for the operations that matter here: backend-proxy
// calls, session authentication, token refresh, listing refreshes, stale
// listing discards, and upload batches.
//
// All recording methods are safe to call on a nil or zero-value Metrics,
// so instrumentation can be absent without guards at call sites.
package instrumentation
