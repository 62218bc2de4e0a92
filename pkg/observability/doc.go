/*
Package observability provides Prometheus instrumentation for
conversation runs.

Metrics wraps a worker's event sink, counting tokens, tool runs, and
model calls as they stream past, and exposes them on a standard
/metrics endpoint.
*/
package observability
