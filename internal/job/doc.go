// Package job implements background job processing for asynchronous work.
//
// Jobs are persisted to the database before being queued in memory, so that
// pending and interrupted work survives process restarts. A JobRunner manages
// a pool of workers that consume jobs from a buffered channel, update job
// status as work progresses, and periodically reset jobs that have been stuck
// in the processing state for too long.
//
// The only job type today is notification dispatch: after a notification is
// persisted, a NotificationDispatchJob fans it out to the recipient's active
// webhook subscriptions.
package job
