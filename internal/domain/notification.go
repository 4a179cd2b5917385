package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Notification-specific validation errors
var (
	// ErrNotificationIDEmpty is returned when a notification ID is empty or nil.
	ErrNotificationIDEmpty = errors.New("notification ID cannot be empty")

	// ErrNotificationRecipientEmpty is returned when a notification's recipient ID is empty or nil.
	ErrNotificationRecipientEmpty = errors.New("notification recipient ID cannot be empty")

	// ErrNotificationActorEmpty is returned when a notification's actor ID is empty or nil.
	ErrNotificationActorEmpty = errors.New("notification actor ID cannot be empty")

	// ErrSelfNotification is returned when recipient and actor are the same user.
	// A user is never notified of their own action.
	ErrSelfNotification = errors.New("recipient and actor cannot be the same user")

	// ErrNotificationMetadataEmpty is returned when a notification carries no metadata.
	// Metadata is the rendering context for human messages and URLs; without it the
	// notification cannot be displayed.
	ErrNotificationMetadataEmpty = errors.New("notification metadata cannot be empty")
)

// Notification is an immutable record of one recipient-facing domain event.
// It is created exactly once by the notification creator; the only mutations
// afterwards are the recipient's read/unread toggles and deletion.
//
// Metadata is a string-keyed, string-valued map carrying the context needed
// to render a human message and URL without re-querying the subject. The
// expected keys vary by event kind and are a convention, not a schema
// (e.g. a mention carries "task_title" and "comment_preview"; a status
// change carries "old_status" and "new_status").
type Notification struct {
	ID          uuid.UUID         `json:"id"`
	RecipientID uuid.UUID         `json:"recipient_id"`
	ActorID     uuid.UUID         `json:"actor_id"`
	Subject     Subject           `json:"subject"`
	EventKind   EventKind         `json:"event_kind"`
	Metadata    map[string]string `json:"metadata"`
	ReadAt      *time.Time        `json:"read_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewNotification creates a new Notification for the given recipient.
// It generates a new UUID for the notification ID and sets the creation timestamp.
// Returns an error if validation fails, including ErrSelfNotification when the
// recipient and actor are the same user (callers treat that as a no-op, not a
// failure).
func NewNotification(
	recipientID, actorID uuid.UUID,
	subject Subject,
	kind EventKind,
	metadata map[string]string,
) (*Notification, error) {
	n := &Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		ActorID:     actorID,
		Subject:     subject,
		EventKind:   kind,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks if the Notification has valid data.
// Returns an error if any field fails validation.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrNotificationIDEmpty
	}

	if n.RecipientID == uuid.Nil {
		return ErrNotificationRecipientEmpty
	}

	if n.ActorID == uuid.Nil {
		return ErrNotificationActorEmpty
	}

	if n.RecipientID == n.ActorID {
		return ErrSelfNotification
	}

	if !n.EventKind.IsValid() {
		return ErrUnknownEventKind
	}

	if len(n.Metadata) == 0 {
		return ErrNotificationMetadataEmpty
	}

	if err := n.Subject.Validate(); err != nil {
		return err
	}

	return nil
}

// IsRead reports whether the recipient has marked the notification as read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// MarkRead records the read timestamp. Marking an already-read notification
// is a no-op so repeated toggles keep the original read time.
func (n *Notification) MarkRead() {
	if n.ReadAt == nil {
		now := time.Now().UTC()
		n.ReadAt = &now
	}
}

// MarkUnread clears the read timestamp.
func (n *Notification) MarkUnread() {
	n.ReadAt = nil
}
