package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// EventKind identifies a kind of domain occurrence that can produce a
// notification. The set is closed: values outside the constants below
// fail validation at construction time rather than silently matching
// nothing downstream.
type EventKind string

// Known event kinds.
const (
	EventKindMention           EventKind = "mention"
	EventKindTaskAssigned      EventKind = "task_assigned"
	EventKindTaskCompleted     EventKind = "task_completed"
	EventKindCommentAdded      EventKind = "comment_added"
	EventKindDeadlineSoon      EventKind = "deadline_soon"
	EventKindProjectShared     EventKind = "project_shared"
	EventKindTaskStatusChanged EventKind = "task_status_changed"
)

// ErrUnknownEventKind is returned when an event kind is not one of the
// known constants.
var ErrUnknownEventKind = errors.New("unknown event kind")

// AllEventKinds returns every known event kind. The slice is a fresh copy
// on each call so callers may mutate it freely.
func AllEventKinds() []EventKind {
	return []EventKind{
		EventKindMention,
		EventKindTaskAssigned,
		EventKindTaskCompleted,
		EventKindCommentAdded,
		EventKindDeadlineSoon,
		EventKindProjectShared,
		EventKindTaskStatusChanged,
	}
}

// IsValid reports whether the event kind is one of the known constants.
func (k EventKind) IsValid() bool {
	switch k {
	case EventKindMention,
		EventKindTaskAssigned,
		EventKindTaskCompleted,
		EventKindCommentAdded,
		EventKindDeadlineSoon,
		EventKindProjectShared,
		EventKindTaskStatusChanged:
		return true
	}
	return false
}

// ParseEventKind converts a string into an EventKind.
// Returns ErrUnknownEventKind if the string is not a known kind.
func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventKind, s)
	}
	return k, nil
}

// SubjectKind identifies the entity type a notification is about.
type SubjectKind string

// Known subject kinds.
const (
	SubjectKindTask    SubjectKind = "task"
	SubjectKindComment SubjectKind = "comment"
	SubjectKindProject SubjectKind = "project"
)

// Subject-specific validation errors.
var (
	ErrUnknownSubjectKind = errors.New("unknown subject kind")
	ErrEmptySubjectID     = errors.New("subject ID cannot be empty")
)

// Subject is a polymorphic reference to the entity a notification is
// about. It is a tagged union of {kind, id}: rendering code switches on
// Kind and falls back to emitting just the pair for kinds it does not
// recognize.
type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   uuid.UUID   `json:"id"`
}

// NewSubject creates a Subject referencing the given entity.
// Returns an error if validation fails.
func NewSubject(kind SubjectKind, id uuid.UUID) (Subject, error) {
	s := Subject{Kind: kind, ID: id}
	if err := s.Validate(); err != nil {
		return Subject{}, err
	}
	return s, nil
}

// Validate checks if the Subject has valid data.
func (s Subject) Validate() error {
	switch s.Kind {
	case SubjectKindTask, SubjectKindComment, SubjectKindProject:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSubjectKind, s.Kind)
	}
	if s.ID == uuid.Nil {
		return ErrEmptySubjectID
	}
	return nil
}

// TaskSubject returns a Subject referencing the given task.
func TaskSubject(id uuid.UUID) Subject { return Subject{Kind: SubjectKindTask, ID: id} }

// CommentSubject returns a Subject referencing the given comment.
func CommentSubject(id uuid.UUID) Subject { return Subject{Kind: SubjectKindComment, ID: id} }

// ProjectSubject returns a Subject referencing the given project.
func ProjectSubject(id uuid.UUID) Subject { return Subject{Kind: SubjectKindProject, ID: id} }
