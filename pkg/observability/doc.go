/*
Package observability turns orchestrator lifecycle events into metrics and logs.

Metrics registers Prometheus collectors and exposes them as domain.LifecycleHooks;
LoggingHooks does the same for structured slog output. Both can be combined
with LifecycleHooks.Merge.
*/
package observability
