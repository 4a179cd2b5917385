package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rgardner/taskflow-api/internal/domain"
)

// TaskNotifier derives notifications from task lifecycle changes.
type TaskNotifier struct {
	creator notificationCreator
	logger  *slog.Logger
}

// NewTaskNotifier creates a TaskNotifier.
func NewTaskNotifier(creator notificationCreator, logger *slog.Logger) *TaskNotifier {
	return &TaskNotifier{
		creator: creator,
		logger:  logger.With("component", "task_notifier"),
	}
}

// NotifyTaskStatusChanged creates the notifications a status transition
// implies: a `task_status_changed` for the task owner, plus a
// `task_completed` when the new status is completed. Both go to the owner
// and neither is created when the owner is the actor.
//
// Malformed or unchanged transitions are a silent no-op. The returned count
// reflects successful creations; individual failures are joined.
func (n *TaskNotifier) NotifyTaskStatusChanged(
	ctx context.Context,
	task *domain.Task,
	oldStatus, newStatus domain.TaskStatus,
	actor *domain.User,
) (int, error) {
	if !oldStatus.IsValid() || !newStatus.IsValid() || oldStatus == newStatus {
		n.logger.Debug("skipping notification for no-op status transition",
			"task_id", task.ID,
			"old_status", oldStatus,
			"new_status", newStatus)
		return 0, nil
	}

	metadata := map[string]string{
		"task_title": task.Title,
		"old_status": string(oldStatus),
		"new_status": string(newStatus),
		"actor_name": actor.DisplayName,
	}

	created := 0
	var errs []error

	notification, err := n.creator.Create(
		ctx,
		task.OwnerID,
		actor.ID,
		domain.TaskSubject(task.ID),
		domain.EventKindTaskStatusChanged,
		metadata,
	)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to notify status change: %w", err))
	} else if notification != nil {
		created++
	}

	if newStatus == domain.TaskStatusCompleted {
		notification, err := n.creator.Create(
			ctx,
			task.OwnerID,
			actor.ID,
			domain.TaskSubject(task.ID),
			domain.EventKindTaskCompleted,
			map[string]string{
				"task_title": task.Title,
				"actor_name": actor.DisplayName,
			},
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to notify completion: %w", err))
		} else if notification != nil {
			created++
		}
	}

	return created, errors.Join(errs...)
}

// NotifyTaskAssigned creates a `task_assigned` notification for the assignee.
// Self-assignment is a no-op and returns (nil, nil).
func (n *TaskNotifier) NotifyTaskAssigned(
	ctx context.Context,
	task *domain.Task,
	assignee, actor *domain.User,
) (*domain.Notification, error) {
	return n.creator.Create(
		ctx,
		assignee.ID,
		actor.ID,
		domain.TaskSubject(task.ID),
		domain.EventKindTaskAssigned,
		map[string]string{
			"task_title": task.Title,
			"actor_name": actor.DisplayName,
		},
	)
}
