package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgardner/taskflow-api/internal/domain"
	"github.com/rgardner/taskflow-api/internal/platform/logger"
	"github.com/rgardner/taskflow-api/internal/store"
)

// PostgresWebhookStore implements the store.WebhookStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWebhookStore struct {
	db store.DBTX
}

// NewPostgresWebhookStore creates a new PostgreSQL implementation of the
// WebhookStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresWebhookStore(db store.DBTX) *PostgresWebhookStore {
	return &PostgresWebhookStore{db: db}
}

// Ensure PostgresWebhookStore implements store.WebhookStore
var _ store.WebhookStore = (*PostgresWebhookStore)(nil)

// WithTx returns a new WebhookStore that uses the provided transaction.
func (s *PostgresWebhookStore) WithTx(tx *sql.Tx) store.WebhookStore {
	return &PostgresWebhookStore{db: tx}
}

// webhookColumns is the select list for reads that omit the secret.
// The secret column is replaced by an empty string so every read path
// scans the same shape.
const webhookColumns = `id, user_id, name, url, event_filter, '' AS secret,
	active, failure_count, last_failure_at, last_success_at, created_at, updated_at`

// webhookColumnsWithSecret is the select list for the dispatcher's matching
// query, which needs the secret for payload signing.
const webhookColumnsWithSecret = `id, user_id, name, url, event_filter, secret,
	active, failure_count, last_failure_at, last_success_at, created_at, updated_at`

// Create implements store.WebhookStore.Create
func (s *PostgresWebhookStore) Create(ctx context.Context, sub *domain.WebhookSubscription) error {
	log := logger.FromContext(ctx)

	if err := sub.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	filter, err := json.Marshal(sub.EventFilter)
	if err != nil {
		return fmt.Errorf("failed to marshal event filter: %w", err)
	}

	query := `
		INSERT INTO webhook_subscriptions
			(id, user_id, name, url, event_filter, secret, active, failure_count,
			 last_failure_at, last_success_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = s.db.ExecContext(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Name,
		sub.URL,
		filter,
		sub.Secret,
		sub.Active,
		sub.FailureCount,
		sub.LastFailureAt,
		sub.LastSuccessAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert webhook subscription",
			"subscription_id", sub.ID,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByID implements store.WebhookStore.GetByID
func (s *PostgresWebhookStore) GetByID(
	ctx context.Context,
	userID, id uuid.UUID,
) (*domain.WebhookSubscription, error) {
	query := `SELECT ` + webhookColumns + `
		FROM webhook_subscriptions WHERE id = $1 AND user_id = $2`

	sub, err := scanWebhookSubscription(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrWebhookNotFound
		}
		return nil, MapError(err)
	}
	return sub, nil
}

// ListByUser implements store.WebhookStore.ListByUser
func (s *PostgresWebhookStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.WebhookSubscription, error) {
	query := `SELECT ` + webhookColumns + `
		FROM webhook_subscriptions WHERE user_id = $1
		ORDER BY created_at DESC`

	return s.queryWebhookSubscriptions(ctx, query, userID)
}

// ListActiveForEvent implements store.WebhookStore.ListActiveForEvent.
// The event filter is a jsonb array of kind strings; containment does the
// filter check in the database.
func (s *PostgresWebhookStore) ListActiveForEvent(
	ctx context.Context,
	userID uuid.UUID,
	kind domain.EventKind,
) ([]*domain.WebhookSubscription, error) {
	kindJSON, err := json.Marshal([]domain.EventKind{kind})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event kind: %w", err)
	}

	query := `SELECT ` + webhookColumnsWithSecret + `
		FROM webhook_subscriptions
		WHERE user_id = $1 AND active = TRUE AND event_filter @> $2
		ORDER BY created_at ASC`

	return s.queryWebhookSubscriptions(ctx, query, userID, kindJSON)
}

// IsActive implements store.WebhookStore.IsActive
func (s *PostgresWebhookStore) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT active FROM webhook_subscriptions WHERE id = $1`

	var active bool
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&active); err != nil {
		if IsNotFoundError(err) {
			return false, store.ErrWebhookNotFound
		}
		return false, MapError(err)
	}
	return active, nil
}

// Update implements store.WebhookStore.Update
func (s *PostgresWebhookStore) Update(
	ctx context.Context,
	userID, id uuid.UUID,
	update store.WebhookUpdate,
) error {
	filter, err := json.Marshal(update.EventFilter)
	if err != nil {
		return fmt.Errorf("failed to marshal event filter: %w", err)
	}

	query := `
		UPDATE webhook_subscriptions
		SET name = $3, url = $4, event_filter = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2
	`

	result, err := s.db.ExecContext(ctx, query,
		id, userID, update.Name, update.URL, filter, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return checkWebhookAffected(result)
}

// SetActive implements store.WebhookStore.SetActive.
// Enabling resets the failure count so a previously auto-disabled endpoint
// starts with a clean slate.
func (s *PostgresWebhookStore) SetActive(
	ctx context.Context,
	userID, id uuid.UUID,
	active bool,
) error {
	query := `
		UPDATE webhook_subscriptions
		SET active = $3,
		    failure_count = CASE WHEN $3 THEN 0 ELSE failure_count END,
		    updated_at = $4
		WHERE id = $1 AND user_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, id, userID, active, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return checkWebhookAffected(result)
}

// Delete implements store.WebhookStore.Delete
func (s *PostgresWebhookStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM webhook_subscriptions WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return MapError(err)
	}
	return checkWebhookAffected(result)
}

// RecordSuccess implements store.WebhookStore.RecordSuccess
func (s *PostgresWebhookStore) RecordSuccess(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE webhook_subscriptions
		SET failure_count = 0, last_success_at = $2, updated_at = $2
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return checkWebhookAffected(result)
}

// RecordFailure implements store.WebhookStore.RecordFailure.
// The increment, timestamp and threshold check run in one statement so
// concurrent dispatches cannot lose an increment or race the auto-disable.
func (s *PostgresWebhookStore) RecordFailure(
	ctx context.Context,
	id uuid.UUID,
	threshold int,
) (int, bool, error) {
	log := logger.FromContext(ctx)

	query := `
		UPDATE webhook_subscriptions
		SET failure_count = failure_count + 1,
		    last_failure_at = $2,
		    active = CASE WHEN failure_count + 1 >= $3 THEN FALSE ELSE active END,
		    updated_at = $2
		WHERE id = $1
		RETURNING failure_count, active
	`

	var (
		failureCount int
		active       bool
	)
	err := s.db.QueryRowContext(ctx, query, id, time.Now().UTC(), threshold).
		Scan(&failureCount, &active)
	if err != nil {
		if IsNotFoundError(err) {
			return 0, false, store.ErrWebhookNotFound
		}
		return 0, false, MapError(err)
	}

	disabled := !active && failureCount >= threshold
	if disabled {
		log.Warn("webhook subscription disabled after repeated failures",
			"subscription_id", id,
			"failure_count", failureCount)
	}

	return failureCount, disabled, nil
}

// queryWebhookSubscriptions runs a multi-row subscription query and scans the results.
func (s *PostgresWebhookStore) queryWebhookSubscriptions(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]*domain.WebhookSubscription, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query webhook subscriptions", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var subs []*domain.WebhookSubscription
	for rows.Next() {
		sub, err := scanWebhookSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook subscription row: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating webhook subscription rows: %w", err)
	}
	return subs, nil
}

// scanWebhookSubscription scans one subscription row into a domain object.
func scanWebhookSubscription(row rowScanner) (*domain.WebhookSubscription, error) {
	var (
		sub           domain.WebhookSubscription
		filter        []byte
		lastFailureAt sql.NullTime
		lastSuccessAt sql.NullTime
	)

	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Name,
		&sub.URL,
		&filter,
		&sub.Secret,
		&sub.Active,
		&sub.FailureCount,
		&lastFailureAt,
		&lastSuccessAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(filter, &sub.EventFilter); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event filter: %w", err)
	}
	if lastFailureAt.Valid {
		t := lastFailureAt.Time
		sub.LastFailureAt = &t
	}
	if lastSuccessAt.Valid {
		t := lastSuccessAt.Time
		sub.LastSuccessAt = &t
	}

	return &sub, nil
}

// checkWebhookAffected converts a zero-row update or delete into the
// owner-scoped not-found error.
func checkWebhookAffected(result sql.Result) error {
	if err := CheckRowsAffected(result, "webhook subscription"); err != nil {
		if IsNotFoundError(err) {
			return store.ErrWebhookNotFound
		}
		return err
	}
	return nil
}
