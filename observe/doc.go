// Package observe provides telemetry for the request-governance
// subsystem: structured JSON logging, OpenTelemetry metrics for cache
// and rate limiter activity, and tracing with pluggable exporters.
package observe
