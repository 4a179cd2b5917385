// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines event types and handler interfaces that allow for loose
// coupling between components in the system. The notification creator emits a
// JobRequestEvent after persisting each notification without knowing which
// handlers will process it; the job package subscribes a handler that turns
// those events into background dispatch jobs.
//
// The primary components are:
// - JobRequestEvent: Represents a request to create a background job
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
