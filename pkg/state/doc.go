/*
Package state holds the observable deployment state and progress.

A Holder is the single source of truth the controller writes and every surface
(terminal, HTTP, MCP, metrics) reads. Writes are validated against the lifecycle
graph:

	ready -> loading -> paused -> loading
	                    paused -> cancelled -> ready
	loading -> ready, paused -> ready

Observers registered with Observe see every accepted change, in order, on the
writer's goroutine. Subscribe channels are buffered and drop changes for slow
readers.
*/
package state
