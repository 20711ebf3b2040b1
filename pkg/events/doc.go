// Package events provides the in-process domain event bus connecting
// retention operations to their listeners.
//
// Publishing is synchronous fan-out: handlers are expected to do cheap
// classification and hand real work to the durable queue, the way the
// dispatcher does. Handlers must not block.
package events
