// Package api contains the HTTP handlers for the Taskflow notification API:
// authentication, notification management, webhook subscription management,
// the SSE notification stream, and the task endpoints that trigger
// notification fan-out.
package api
