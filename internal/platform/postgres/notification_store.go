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

// defaultNotificationListLimit caps unbounded listings.
const defaultNotificationListLimit = 50

// PostgresNotificationStore implements the store.NotificationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db store.DBTX
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of the
// NotificationStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresNotificationStore(db store.DBTX) *PostgresNotificationStore {
	return &PostgresNotificationStore{db: db}
}

// Ensure PostgresNotificationStore implements store.NotificationStore
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// WithTx returns a new NotificationStore that uses the provided transaction.
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &PostgresNotificationStore{db: tx}
}

// notificationColumns is the select list shared by every read query.
const notificationColumns = `id, recipient_id, actor_id, subject_kind, subject_id,
	event_kind, metadata, read_at, created_at`

// Create implements store.NotificationStore.Create
func (s *PostgresNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	log := logger.FromContext(ctx)

	if err := n.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal notification metadata: %w", err)
	}

	query := `
		INSERT INTO notifications
			(id, recipient_id, actor_id, subject_kind, subject_id, event_kind, metadata, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.ActorID,
		string(n.Subject.Kind),
		n.Subject.ID,
		string(n.EventKind),
		metadata,
		n.ReadAt,
		n.CreatedAt,
	)
	if err != nil {
		log.Error("failed to insert notification",
			"notification_id", n.ID,
			"event_kind", n.EventKind,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByID implements store.NotificationStore.GetByID
func (s *PostgresNotificationStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrNotificationNotFound
		}
		return nil, MapError(err)
	}
	return n, nil
}

// GetForRecipient implements store.NotificationStore.GetForRecipient
func (s *PostgresNotificationStore) GetForRecipient(
	ctx context.Context,
	recipientID, id uuid.UUID,
) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications WHERE id = $1 AND recipient_id = $2`

	n, err := scanNotification(s.db.QueryRowContext(ctx, query, id, recipientID))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrNotificationNotFound
		}
		return nil, MapError(err)
	}
	return n, nil
}

// ListByRecipient implements store.NotificationStore.ListByRecipient
func (s *PostgresNotificationStore) ListByRecipient(
	ctx context.Context,
	recipientID uuid.UUID,
	filter store.NotificationFilter,
) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications WHERE recipient_id = $1`
	args := []interface{}{recipientID}

	if filter.UnreadOnly {
		query += ` AND read_at IS NULL`
	}
	if filter.EventKind != "" {
		args = append(args, string(filter.EventKind))
		query += fmt.Sprintf(` AND event_kind = $%d`, len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultNotificationListLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	return s.queryNotifications(ctx, query, args...)
}

// ListUnreadSince implements store.NotificationStore.ListUnreadSince
func (s *PostgresNotificationStore) ListUnreadSince(
	ctx context.Context,
	recipientID uuid.UUID,
	since time.Time,
) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1 AND read_at IS NULL AND created_at >= $2
		ORDER BY created_at DESC`

	return s.queryNotifications(ctx, query, recipientID, since)
}

// CountUnread implements store.NotificationStore.CountUnread
func (s *PostgresNotificationStore) CountUnread(
	ctx context.Context,
	recipientID uuid.UUID,
) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read_at IS NULL`

	var count int
	if err := s.db.QueryRowContext(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// MarkRead implements store.NotificationStore.MarkRead
func (s *PostgresNotificationStore) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	// read_at is only stamped when currently null so repeated calls keep the
	// original read time; the row still counts as affected via the id match.
	query := `
		UPDATE notifications
		SET read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND recipient_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, id, recipientID, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return checkNotificationAffected(result)
}

// MarkUnread implements store.NotificationStore.MarkUnread
func (s *PostgresNotificationStore) MarkUnread(ctx context.Context, recipientID, id uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read_at = NULL
		WHERE id = $1 AND recipient_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return MapError(err)
	}
	return checkNotificationAffected(result)
}

// MarkAllRead implements store.NotificationStore.MarkAllRead
func (s *PostgresNotificationStore) MarkAllRead(
	ctx context.Context,
	recipientID uuid.UUID,
) (int, error) {
	query := `
		UPDATE notifications
		SET read_at = $2
		WHERE recipient_id = $1 AND read_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, recipientID, time.Now().UTC())
	if err != nil {
		return 0, MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

// Delete implements store.NotificationStore.Delete
func (s *PostgresNotificationStore) Delete(ctx context.Context, recipientID, id uuid.UUID) error {
	query := `DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return MapError(err)
	}
	return checkNotificationAffected(result)
}

// queryNotifications runs a multi-row notification query and scans the results.
func (s *PostgresNotificationStore) queryNotifications(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]*domain.Notification, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query notifications", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanNotification scans one notification row into a domain object.
func scanNotification(row rowScanner) (*domain.Notification, error) {
	var (
		n           domain.Notification
		subjectKind string
		eventKind   string
		metadata    []byte
		readAt      sql.NullTime
	)

	err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.ActorID,
		&subjectKind,
		&n.Subject.ID,
		&eventKind,
		&metadata,
		&readAt,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Subject.Kind = domain.SubjectKind(subjectKind)
	n.EventKind = domain.EventKind(eventKind)
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification metadata: %w", err)
	}

	return &n, nil
}

// checkNotificationAffected converts a zero-row update or delete into the
// recipient-scoped not-found error.
func checkNotificationAffected(result sql.Result) error {
	if err := CheckRowsAffected(result, "notification"); err != nil {
		if IsNotFoundError(err) {
			return store.ErrNotificationNotFound
		}
		return err
	}
	return nil
}
