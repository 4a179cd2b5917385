// Package stream implements the live notification stream over Server-Sent
// Events.
//
// Each connection runs its own polling loop: a heartbeat ping on a fixed
// cadence, and with every heartbeat a query for unread notifications created
// within a lookback window slightly wider than the cadence. The overlap means
// a notification can be emitted twice; clients deduplicate by ID. A write
// failure is a client disconnect and terminates the loop normally.
package stream
