package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rgardner/taskflow-api/internal/domain"
)

// TaskStore defines the minimal task persistence surface the notification
// core needs: subject resolution, the status/assignment triggers, and
// creation for seeding.
type TaskStore interface {
	// Create saves a new task to the store.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// UpdateStatus transitions a task to the given status.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error

	// Assign sets the task's assignee.
	// Returns ErrTaskNotFound if the task does not exist.
	Assign(ctx context.Context, id uuid.UUID, assigneeID uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}

// CommentStore defines the minimal comment persistence surface: creation
// (the mention trigger) and subject resolution.
type CommentStore interface {
	// Create saves a new comment to the store.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment by its unique ID.
	// Returns ErrCommentNotFound if the comment does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
}

// ProjectStore defines the minimal project persistence surface: creation
// for seeding and subject resolution.
type ProjectStore interface {
	// Create saves a new project to the store.
	Create(ctx context.Context, project *domain.Project) error

	// GetByID retrieves a project by its unique ID.
	// Returns ErrProjectNotFound if the project does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
}
