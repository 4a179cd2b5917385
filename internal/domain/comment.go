package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Comment-specific validation errors
var (
	ErrCommentIDEmpty     = errors.New("comment ID cannot be empty")
	ErrCommentTaskEmpty   = errors.New("comment task ID cannot be empty")
	ErrCommentAuthorEmpty = errors.New("comment author ID cannot be empty")
	ErrCommentBodyEmpty   = errors.New("comment body cannot be empty")
)

// Comment represents a comment posted on a task. The body may contain
// mention tokens (@ followed by an email address) which the comment
// notifier resolves to users.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment creates a new Comment on the given task.
// Returns an error if validation fails.
func NewComment(taskID, authorID uuid.UUID, body string) (*Comment, error) {
	comment := &Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	if err := comment.Validate(); err != nil {
		return nil, err
	}

	return comment, nil
}

// Validate checks if the Comment has valid data.
func (c *Comment) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCommentIDEmpty
	}

	if c.TaskID == uuid.Nil {
		return ErrCommentTaskEmpty
	}

	if c.AuthorID == uuid.Nil {
		return ErrCommentAuthorEmpty
	}

	if strings.TrimSpace(c.Body) == "" {
		return ErrCommentBodyEmpty
	}

	return nil
}
