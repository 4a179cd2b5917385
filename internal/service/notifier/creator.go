package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rgardner/taskflow-api/internal/domain"
	"github.com/rgardner/taskflow-api/internal/events"
	"github.com/rgardner/taskflow-api/internal/store"
)

// dispatchJobType is the background job type requested after each persisted
// notification. Kept as a string literal here to avoid importing the job
// package from the service layer.
const dispatchJobType = "notification_dispatch"

// ErrSubjectNotFound is returned when a notification's subject does not
// resolve to an existing entity.
var ErrSubjectNotFound = errors.New("notification subject does not exist")

// SubjectResolver verifies that a subject reference points at an existing
// entity. Notifications must never be created for subjects that are already
// gone.
type SubjectResolver interface {
	Resolve(ctx context.Context, subject domain.Subject) error
}

// StoreSubjectResolver resolves subjects against the entity stores.
type StoreSubjectResolver struct {
	tasks    store.TaskStore
	comments store.CommentStore
	projects store.ProjectStore
}

// NewStoreSubjectResolver creates a resolver backed by the entity stores.
func NewStoreSubjectResolver(
	tasks store.TaskStore,
	comments store.CommentStore,
	projects store.ProjectStore,
) *StoreSubjectResolver {
	return &StoreSubjectResolver{tasks: tasks, comments: comments, projects: projects}
}

var _ SubjectResolver = (*StoreSubjectResolver)(nil)

// Resolve checks the subject's referenced entity exists.
// Returns ErrSubjectNotFound when it does not.
func (r *StoreSubjectResolver) Resolve(ctx context.Context, subject domain.Subject) error {
	var err error
	switch subject.Kind {
	case domain.SubjectKindTask:
		_, err = r.tasks.GetByID(ctx, subject.ID)
	case domain.SubjectKindComment:
		_, err = r.comments.GetByID(ctx, subject.ID)
	case domain.SubjectKindProject:
		_, err = r.projects.GetByID(ctx, subject.ID)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownSubjectKind, subject.Kind)
	}

	if err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("%w: %s %s", ErrSubjectNotFound, subject.Kind, subject.ID)
		}
		return fmt.Errorf("failed to resolve subject: %w", err)
	}
	return nil
}

// Creator is the single write path for notifications.
type Creator struct {
	notifications store.NotificationStore
	resolver      SubjectResolver
	emitter       events.EventEmitter
	logger        *slog.Logger
}

// NewCreator creates a notification Creator.
func NewCreator(
	notifications store.NotificationStore,
	resolver SubjectResolver,
	emitter events.EventEmitter,
	logger *slog.Logger,
) *Creator {
	return &Creator{
		notifications: notifications,
		resolver:      resolver,
		emitter:       emitter,
		logger:        logger.With("component", "notification_creator"),
	}
}

// Create validates and persists one notification, then requests its
// background dispatch.
//
// When recipient == actor it returns (nil, nil): a user is never notified of
// their own action and callers treat that as a successful no-op, not a
// failure. Dispatch event emission failure is logged but never fails the
// creation; the notification is already durable at that point.
func (c *Creator) Create(
	ctx context.Context,
	recipientID, actorID uuid.UUID,
	subject domain.Subject,
	kind domain.EventKind,
	metadata map[string]string,
) (*domain.Notification, error) {
	if recipientID == actorID {
		c.logger.Debug("skipping self-notification",
			"user_id", recipientID,
			"event_kind", kind)
		return nil, nil
	}

	n, err := domain.NewNotification(recipientID, actorID, subject, kind, metadata)
	if err != nil {
		return nil, fmt.Errorf("invalid notification: %w", err)
	}

	if err := c.resolver.Resolve(ctx, subject); err != nil {
		return nil, err
	}

	if err := c.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	c.logger.Info("notification created",
		"notification_id", n.ID,
		"recipient_id", n.RecipientID,
		"event_kind", n.EventKind)

	event, err := events.NewJobRequestEvent(dispatchJobType, map[string]string{
		"notification_id": n.ID.String(),
	})
	if err != nil {
		c.logger.Error("failed to build dispatch event",
			"notification_id", n.ID,
			"error", err)
		return n, nil
	}

	if err := c.emitter.EmitEvent(ctx, event); err != nil {
		c.logger.Error("failed to emit dispatch event",
			"notification_id", n.ID,
			"event_id", event.ID,
			"error", err)
	}

	return n, nil
}
