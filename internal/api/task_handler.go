package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rgardner/taskflow-api/internal/api/shared"
	"github.com/rgardner/taskflow-api/internal/domain"
	"github.com/rgardner/taskflow-api/internal/redact"
	"github.com/rgardner/taskflow-api/internal/store"
)

// commentNotifier is the comment fan-out seam, satisfied by
// notifier.CommentNotifier.
type commentNotifier interface {
	NotifyCommentCreated(
		ctx context.Context,
		comment *domain.Comment,
		task *domain.Task,
		actor *domain.User,
	) (int, error)
}

// taskNotifier is the task fan-out seam, satisfied by notifier.TaskNotifier.
type taskNotifier interface {
	NotifyTaskStatusChanged(
		ctx context.Context,
		task *domain.Task,
		oldStatus, newStatus domain.TaskStatus,
		actor *domain.User,
	) (int, error)
	NotifyTaskAssigned(
		ctx context.Context,
		task *domain.Task,
		assignee, actor *domain.User,
	) (*domain.Notification, error)
}

// TaskHandler handles the task endpoints that trigger notification fan-out:
// commenting, status transitions, and assignment.
type TaskHandler struct {
	tasks     store.TaskStore
	comments  store.CommentStore
	users     store.UserStore
	onComment commentNotifier
	onTask    taskNotifier
	runTx     TxRunner
	validator *validator.Validate
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(
	tasks store.TaskStore,
	comments store.CommentStore,
	users store.UserStore,
	onComment commentNotifier,
	onTask taskNotifier,
	runTx TxRunner,
) *TaskHandler {
	return &TaskHandler{
		tasks:     tasks,
		comments:  comments,
		users:     users,
		onComment: onComment,
		onTask:    onTask,
		runTx:     runTx,
		validator: validator.New(),
	}
}

// CreateComment handles POST /api/tasks/{id}/comments. The comment is
// persisted first; notification fan-out failures are logged but never undo
// the comment.
func (h *TaskHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actor, task, ok := h.loadActorAndTask(w, r)
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	comment, err := domain.NewComment(task.ID, actor.ID, req.Body)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid comment: "+err.Error())
		return
	}

	if err := h.comments.Create(r.Context(), comment); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to create comment", err)
		return
	}

	created, err := h.onComment.NotifyCommentCreated(r.Context(), comment, task, actor)
	if err != nil {
		slog.Warn("comment notification fan-out partially failed",
			"comment_id", comment.ID,
			"task_id", task.ID,
			"notifications_created", created,
			"error", redact.Error(err))
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, CommentResponse{
		ID:                   comment.ID,
		TaskID:               comment.TaskID,
		AuthorID:             comment.AuthorID,
		Body:                 comment.Body,
		CreatedAt:            comment.CreatedAt,
		NotificationsCreated: created,
	})
}

// UpdateStatus handles POST /api/tasks/{id}/status.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, task, ok := h.loadActorAndTask(w, r)
	if !ok {
		return
	}

	var req UpdateTaskStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	newStatus, err := domain.ParseTaskStatus(req.Status)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Unknown task status")
		return
	}

	// Re-read the status inside the transaction so the fan-out reports the
	// status that was actually replaced, not a stale pre-decode snapshot.
	oldStatus := task.Status
	err = h.runTx(r.Context(), func(ctx context.Context, tx *sql.Tx) error {
		tasks := h.tasks.WithTx(tx)
		current, err := tasks.GetByID(ctx, task.ID)
		if err != nil {
			return err
		}
		oldStatus = current.Status
		return tasks.UpdateStatus(ctx, task.ID, newStatus)
	})
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to update task status", err)
		return
	}
	task.Status = newStatus

	created, err := h.onTask.NotifyTaskStatusChanged(r.Context(), task, oldStatus, newStatus, actor)
	if err != nil {
		slog.Warn("status change notification fan-out partially failed",
			"task_id", task.ID,
			"notifications_created", created,
			"error", redact.Error(err))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskActionResponse{
		Task:                 task,
		NotificationsCreated: created,
	})
}

// Assign handles POST /api/tasks/{id}/assign.
func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, task, ok := h.loadActorAndTask(w, r)
	if !ok {
		return
	}

	var req AssignTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.AssigneeID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Assignee ID required")
		return
	}

	assignee, err := h.users.GetByID(r.Context(), req.AssigneeID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Assignee not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load assignee", err)
		return
	}

	if err := h.tasks.Assign(r.Context(), task.ID, assignee.ID); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to assign task", err)
		return
	}
	task.AssigneeID = &assignee.ID

	created := 0
	if n, err := h.onTask.NotifyTaskAssigned(r.Context(), task, assignee, actor); err != nil {
		slog.Warn("assignment notification failed",
			"task_id", task.ID,
			"assignee_id", assignee.ID,
			"error", redact.Error(err))
	} else if n != nil {
		created = 1
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskActionResponse{
		Task:                 task,
		NotificationsCreated: created,
	})
}

// loadActorAndTask resolves the authenticated actor and the path task,
// writing the error response itself when either fails.
func (h *TaskHandler) loadActorAndTask(
	w http.ResponseWriter,
	r *http.Request,
) (*domain.User, *domain.Task, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return nil, nil, false
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return nil, nil, false
	}

	actor, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load user", err)
		return nil, nil, false
	}

	task, err := h.tasks.GetByID(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return nil, nil, false
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load task", err)
		return nil, nil, false
	}

	return actor, task, true
}
