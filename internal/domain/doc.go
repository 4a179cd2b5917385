// Package domain defines the core business entities of the application:
// users, projects, tasks, comments, and the notification and webhook
// subscription records derived from them.
package domain
