package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rgardner/taskflow-api/internal/domain"
)

// WebhookUpdate carries the owner-editable fields of a subscription.
// The secret is deliberately absent: it is generated once at creation and
// never changes.
type WebhookUpdate struct {
	Name        string
	URL         string
	EventFilter []domain.EventKind
}

// WebhookStore defines the interface for webhook subscription persistence,
// including the delivery health counters mutated by the dispatcher.
//
// Reads omit the signing secret unless the method documents otherwise;
// API-facing callers must never see it after creation.
type WebhookStore interface {
	// Create saves a new subscription, including its secret.
	// Returns validation errors from the domain WebhookSubscription if data
	// is invalid.
	Create(ctx context.Context, sub *domain.WebhookSubscription) error

	// GetByID retrieves a subscription by ID scoped to its owner, with the
	// secret omitted. Returns ErrWebhookNotFound if it does not exist or is
	// owned by someone else.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.WebhookSubscription, error)

	// ListByUser lists the owner's subscriptions, newest first, secrets omitted.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.WebhookSubscription, error)

	// ListActiveForEvent returns the active subscriptions owned by the given
	// user whose event filter contains the given kind. Secrets are INCLUDED:
	// this is the dispatcher's matching query and the results feed payload
	// signing.
	ListActiveForEvent(
		ctx context.Context,
		userID uuid.UUID,
		kind domain.EventKind,
	) ([]*domain.WebhookSubscription, error)

	// IsActive reports whether the subscription is currently active. The
	// dispatcher re-checks this immediately before each individual delivery
	// so a subscription disabled mid-batch stops receiving the remainder.
	IsActive(ctx context.Context, id uuid.UUID) (bool, error)

	// Update modifies the owner-editable fields of a subscription.
	// Returns ErrWebhookNotFound under owner scoping rules.
	Update(ctx context.Context, userID, id uuid.UUID, update WebhookUpdate) error

	// SetActive enables or disables a subscription as an explicit owner
	// action. Enabling also resets the failure count to zero.
	// Returns ErrWebhookNotFound under owner scoping rules.
	SetActive(ctx context.Context, userID, id uuid.UUID, active bool) error

	// Delete removes a subscription.
	// Returns ErrWebhookNotFound under owner scoping rules.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// RecordSuccess resets the subscription's failure count to zero and
	// stamps last_success_at. Called by the dispatcher after a 2xx response.
	RecordSuccess(ctx context.Context, id uuid.UUID) error

	// RecordFailure increments the subscription's failure count and stamps
	// last_failure_at in a single atomic statement, forcing active to false
	// when the new count reaches the threshold. Returns the new count and
	// whether the subscription was disabled by this call. Concurrent
	// dispatches may interleave; the increment must never be lost.
	RecordFailure(ctx context.Context, id uuid.UUID, threshold int) (failureCount int, disabled bool, err error)

	// WithTx returns a new WebhookStore instance that uses the provided
	// transaction. The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) WebhookStore
}
