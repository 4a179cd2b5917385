package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rgardner/taskflow-api/internal/service/webhook"
)

// Status constants for NotificationDispatchJob
// These match the JobStatus values defined in job.go
const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// Common errors
var (
	ErrNilDispatcher       = errors.New("dispatcher cannot be nil")
	ErrNilLogger           = errors.New("logger cannot be nil")
	ErrEmptyNotificationID = errors.New("notification ID cannot be empty")
)

// Dispatcher defines the interface for fanning a notification out to the
// recipient's webhook subscriptions.
type Dispatcher interface {
	// Dispatch delivers the identified notification to every active,
	// matching webhook subscription and reports the outcome.
	Dispatch(ctx context.Context, notificationID uuid.UUID) (*webhook.DispatchResult, error)
}

// notificationDispatchPayload represents the serialized data stored in the job
type notificationDispatchPayload struct {
	NotificationID uuid.UUID `json:"notification_id"`
}

// NotificationDispatchJob implements the Job interface for delivering a
// persisted notification to webhook subscriptions.
type NotificationDispatchJob struct {
	id             uuid.UUID
	notificationID uuid.UUID
	dispatcher     Dispatcher
	logger         *slog.Logger
	status         string
}

// NewNotificationDispatchJob creates a new notification dispatch job
func NewNotificationDispatchJob(
	notificationID uuid.UUID,
	dispatcher Dispatcher,
	logger *slog.Logger,
) (*NotificationDispatchJob, error) {
	if dispatcher == nil {
		return nil, ErrNilDispatcher
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if notificationID == uuid.Nil {
		return nil, ErrEmptyNotificationID
	}

	return &NotificationDispatchJob{
		id:             uuid.New(),
		notificationID: notificationID,
		dispatcher:     dispatcher,
		logger:         logger.With("job_type", JobTypeNotificationDispatch, "notification_id", notificationID),
		status:         statusPending,
	}, nil
}

// ID returns the job's unique identifier
func (j *NotificationDispatchJob) ID() uuid.UUID {
	return j.id
}

// Type returns the job type identifier
func (j *NotificationDispatchJob) Type() string {
	return JobTypeNotificationDispatch
}

// Payload returns the job data as a byte slice
func (j *NotificationDispatchJob) Payload() []byte {
	payload := notificationDispatchPayload{
		NotificationID: j.notificationID,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		j.logger.Error("failed to marshal job payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current job status
func (j *NotificationDispatchJob) Status() JobStatus {
	return JobStatus(j.status)
}

// Execute delivers the notification to all matching webhook subscriptions.
// Individual endpoint failures are accounted for by the dispatcher and do not
// fail the job; the job fails only if dispatch itself cannot proceed, for
// example when the notification no longer exists.
func (j *NotificationDispatchJob) Execute(ctx context.Context) error {
	j.status = statusProcessing
	j.logger.Info("starting notification dispatch job")

	if err := ctx.Err(); err != nil {
		j.status = statusFailed
		j.logger.Error("job cancelled by context", "error", err)
		return fmt.Errorf("job cancelled by context: %w", err)
	}

	result, err := j.dispatcher.Dispatch(ctx, j.notificationID)
	if err != nil {
		j.status = statusFailed
		j.logger.Error("failed to dispatch notification", "error", err)
		return fmt.Errorf("failed to dispatch notification: %w", err)
	}

	j.status = statusCompleted
	j.logger.Info("notification dispatch job completed",
		"matched", result.Matched,
		"delivered", result.Delivered,
		"failed", result.Failed,
		"outcome", result.Message)
	return nil
}

// ParseDispatchPayload decodes a serialized dispatch job payload and returns
// the notification ID it carries. Used when re-executing jobs recovered from
// the database.
func ParseDispatchPayload(payload []byte) (uuid.UUID, error) {
	var p notificationDispatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return uuid.Nil, fmt.Errorf("failed to unmarshal dispatch payload: %w", err)
	}
	if p.NotificationID == uuid.Nil {
		return uuid.Nil, ErrEmptyNotificationID
	}
	return p.NotificationID, nil
}

// NotificationDispatchJobFactory creates NotificationDispatchJob instances
type NotificationDispatchJobFactory struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewNotificationDispatchJobFactory creates a new factory for
// NotificationDispatchJobs
func NewNotificationDispatchJobFactory(
	dispatcher Dispatcher,
	logger *slog.Logger,
) *NotificationDispatchJobFactory {
	return &NotificationDispatchJobFactory{
		dispatcher: dispatcher,
		logger:     logger.With("component", "notification_dispatch_job_factory"),
	}
}

// CreateJob creates a new NotificationDispatchJob for the specified notification
func (f *NotificationDispatchJobFactory) CreateJob(notificationID uuid.UUID) (Job, error) {
	job, err := NewNotificationDispatchJob(
		notificationID,
		f.dispatcher,
		f.logger,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}
