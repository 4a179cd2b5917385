// Package notifier creates notifications from domain events.
//
// The Creator owns the single write path for notifications: it enforces the
// self-notification no-op, resolves the subject reference, persists the
// record, and emits the background dispatch event. The event notifiers
// (comments, task status changes, assignments) derive who should be notified
// of a given occurrence and delegate every write to the Creator.
package notifier
