package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rgardner/taskflow-api/internal/domain"
)

// NotificationFilter narrows a notification listing. The zero value lists
// everything belonging to the recipient.
type NotificationFilter struct {
	// UnreadOnly limits the listing to notifications with no read timestamp.
	UnreadOnly bool

	// EventKind, when non-empty, limits the listing to one event kind.
	EventKind domain.EventKind

	// Limit caps the number of returned rows. Zero means the store default.
	Limit int

	// Offset skips the first N rows for pagination.
	Offset int
}

// NotificationStore defines the interface for notification persistence.
// All read and mutate operations are scoped to a recipient: a notification
// belonging to another user behaves exactly as if it did not exist
// (ErrNotificationNotFound), never as a permission error.
type NotificationStore interface {
	// Create saves a new notification to the store.
	// Returns validation errors from the domain Notification if data is invalid.
	Create(ctx context.Context, notification *domain.Notification) error

	// GetByID retrieves a notification by its unique ID without recipient
	// scoping. This is the dispatcher's load path; API reads go through
	// GetForRecipient instead.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)

	// GetForRecipient retrieves a notification by ID, scoped to the recipient.
	// Returns ErrNotificationNotFound if it does not exist or belongs to
	// someone else.
	GetForRecipient(ctx context.Context, recipientID, id uuid.UUID) (*domain.Notification, error)

	// ListByRecipient lists the recipient's notifications, newest first,
	// applying the given filter.
	ListByRecipient(
		ctx context.Context,
		recipientID uuid.UUID,
		filter NotificationFilter,
	) ([]*domain.Notification, error)

	// ListUnreadSince lists the recipient's unread notifications created at or
	// after the given instant, newest first. This is the live stream's polling
	// query; the caller passes a window slightly wider than its poll cadence.
	ListUnreadSince(
		ctx context.Context,
		recipientID uuid.UUID,
		since time.Time,
	) ([]*domain.Notification, error)

	// CountUnread returns the number of the recipient's unread notifications.
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)

	// MarkRead sets the read timestamp on one notification.
	// Marking an already-read notification is a no-op.
	// Returns ErrNotificationNotFound under recipient scoping rules.
	MarkRead(ctx context.Context, recipientID, id uuid.UUID) error

	// MarkUnread clears the read timestamp on one notification.
	// Returns ErrNotificationNotFound under recipient scoping rules.
	MarkUnread(ctx context.Context, recipientID, id uuid.UUID) error

	// MarkAllRead sets the read timestamp on every unread notification
	// belonging to the recipient and returns how many were updated.
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error)

	// Delete removes a notification.
	// Returns ErrNotificationNotFound under recipient scoping rules.
	Delete(ctx context.Context, recipientID, id uuid.UUID) error

	// WithTx returns a new NotificationStore instance that uses the provided
	// transaction. The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) NotificationStore
}
