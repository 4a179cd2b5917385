package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the workflow state of a task.
type TaskStatus string

// Known task statuses.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusArchived   TaskStatus = "archived"
)

// Task-specific validation errors
var (
	ErrTaskIDEmpty       = errors.New("task ID cannot be empty")
	ErrTaskOwnerEmpty    = errors.New("task owner ID cannot be empty")
	ErrTaskProjectEmpty  = errors.New("task project ID cannot be empty")
	ErrTaskTitleEmpty    = errors.New("task title cannot be empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
)

// IsValid reports whether the task status is one of the known constants.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusArchived:
		return true
	}
	return false
}

// ParseTaskStatus converts a string into a TaskStatus.
// Returns ErrInvalidTaskStatus if the string is not a known status.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskStatus, s)
	}
	return status, nil
}

// Task represents a unit of work within a project. Only the fields the
// notification core needs are modeled here; the full task CRUD surface
// lives outside this service.
type Task struct {
	ID         uuid.UUID  `json:"id"`
	ProjectID  uuid.UUID  `json:"project_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	AssigneeID *uuid.UUID `json:"assignee_id,omitempty"`
	Title      string     `json:"title"`
	Status     TaskStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewTask creates a new Task in the todo state.
// Returns an error if validation fails.
func NewTask(projectID, ownerID uuid.UUID, title string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New(),
		ProjectID: projectID,
		OwnerID:   ownerID,
		Title:     title,
		Status:    TaskStatusTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.ProjectID == uuid.Nil {
		return ErrTaskProjectEmpty
	}

	if t.OwnerID == uuid.Nil {
		return ErrTaskOwnerEmpty
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrTaskTitleEmpty
	}

	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}

	return nil
}

// SetStatus transitions the task to the given status and updates the
// UpdatedAt timestamp. Returns an error if the status is not valid.
func (t *Task) SetStatus(status TaskStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTaskStatus, status)
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}
