/*
Package observability turns deployment lifecycle events into logs and
Prometheus metrics.

Both are exposed as domain.LifecycleHooks so they can be combined and handed to
the deployer with a single option.
*/
package observability
