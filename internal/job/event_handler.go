package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rgardner/taskflow-api/internal/events"
)

// jobFactory creates jobs for a notification. Satisfied by
// NotificationDispatchJobFactory; declared as an interface for testing.
type jobFactory interface {
	CreateJob(notificationID uuid.UUID) (Job, error)
}

// jobSubmitter accepts jobs for background execution. Satisfied by JobRunner.
type jobSubmitter interface {
	Submit(ctx context.Context, job Job) error
}

// JobFactoryEventHandler implements the events.EventHandler interface
// to handle job request events and delegate them to the job factory.
type JobFactoryEventHandler struct {
	factory jobFactory
	runner  jobSubmitter
	logger  *slog.Logger
}

// NewJobFactoryEventHandler creates a new event handler that uses the given
// factory to create jobs and submits them to the provided runner.
func NewJobFactoryEventHandler(
	factory jobFactory,
	runner jobSubmitter,
	logger *slog.Logger,
) *JobFactoryEventHandler {
	return &JobFactoryEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "job_factory_event_handler"),
	}
}

// HandleEvent processes events by creating and submitting jobs.
// It extracts the payload from the event, creates the appropriate job,
// and submits it to the runner for execution.
func (h *JobFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.JobRequestEvent,
) error {
	if event.Type != JobTypeNotificationDispatch {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload struct {
		NotificationID string `json:"notification_id"`
	}

	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	notificationID, err := uuid.Parse(payload.NotificationID)
	if err != nil {
		h.logger.Error("invalid notification ID",
			"error", err,
			"notification_id", payload.NotificationID,
			"event_id", event.ID)
		return fmt.Errorf("invalid notification ID: %w", err)
	}

	h.logger.Debug("creating job for notification",
		"notification_id", notificationID,
		"event_id", event.ID)
	job, err := h.factory.CreateJob(notificationID)
	if err != nil {
		h.logger.Error("failed to create job",
			"error", err,
			"notification_id", notificationID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create job: %w", err)
	}

	if err := h.runner.Submit(ctx, job); err != nil {
		h.logger.Error("failed to submit job",
			"error", err,
			"job_id", job.ID(),
			"notification_id", notificationID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit job: %w", err)
	}

	h.logger.Info("job created and submitted successfully",
		"job_id", job.ID(),
		"notification_id", notificationID,
		"event_id", event.ID)
	return nil
}

// Ensure JobFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*JobFactoryEventHandler)(nil)
