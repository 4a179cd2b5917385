package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func validNotificationFixture() Notification {
	return Notification{
		ID:          uuid.New(),
		RecipientID: uuid.New(),
		ActorID:     uuid.New(),
		Subject:     TaskSubject(uuid.New()),
		EventKind:   EventKindMention,
		Metadata:    map[string]string{"task_title": "Ship release"},
	}
}

func TestNewNotification(t *testing.T) {
	recipient := uuid.New()
	actor := uuid.New()
	subject := CommentSubject(uuid.New())
	metadata := map[string]string{"comment_preview": "looks good"}

	n, err := NewNotification(recipient, actor, subject, EventKindCommentAdded, metadata)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if n.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if n.RecipientID != recipient {
		t.Errorf("Expected recipient %s, got %s", recipient, n.RecipientID)
	}

	if n.ReadAt != nil {
		t.Error("Expected new notification to be unread")
	}

	if n.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}
}

func TestNewNotification_SelfAction(t *testing.T) {
	user := uuid.New()

	_, err := NewNotification(
		user,
		user,
		TaskSubject(uuid.New()),
		EventKindTaskCompleted,
		map[string]string{"task_title": "x"},
	)
	if !errors.Is(err, ErrSelfNotification) {
		t.Errorf("Expected error %v, got %v", ErrSelfNotification, err)
	}
}

func TestNotificationValidate(t *testing.T) {
	valid := validNotificationFixture()
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalid := valid
	invalid.ID = uuid.Nil
	if err := invalid.Validate(); !errors.Is(err, ErrNotificationIDEmpty) {
		t.Errorf("Expected error %v, got %v", ErrNotificationIDEmpty, err)
	}

	invalid = valid
	invalid.RecipientID = uuid.Nil
	if err := invalid.Validate(); !errors.Is(err, ErrNotificationRecipientEmpty) {
		t.Errorf("Expected error %v, got %v", ErrNotificationRecipientEmpty, err)
	}

	invalid = valid
	invalid.ActorID = invalid.RecipientID
	if err := invalid.Validate(); !errors.Is(err, ErrSelfNotification) {
		t.Errorf("Expected error %v, got %v", ErrSelfNotification, err)
	}

	invalid = valid
	invalid.EventKind = EventKind("made_up")
	if err := invalid.Validate(); !errors.Is(err, ErrUnknownEventKind) {
		t.Errorf("Expected error %v, got %v", ErrUnknownEventKind, err)
	}

	invalid = valid
	invalid.Metadata = nil
	if err := invalid.Validate(); !errors.Is(err, ErrNotificationMetadataEmpty) {
		t.Errorf("Expected error %v, got %v", ErrNotificationMetadataEmpty, err)
	}

	invalid = valid
	invalid.Subject = Subject{Kind: "gadget", ID: uuid.New()}
	if err := invalid.Validate(); !errors.Is(err, ErrUnknownSubjectKind) {
		t.Errorf("Expected error %v, got %v", ErrUnknownSubjectKind, err)
	}

	invalid = valid
	invalid.Subject = Subject{Kind: SubjectKindTask}
	if err := invalid.Validate(); !errors.Is(err, ErrEmptySubjectID) {
		t.Errorf("Expected error %v, got %v", ErrEmptySubjectID, err)
	}
}

func TestNotificationReadToggles(t *testing.T) {
	n := validNotificationFixture()

	if n.IsRead() {
		t.Error("Expected notification to start unread")
	}

	n.MarkRead()
	if !n.IsRead() {
		t.Error("Expected notification to be read after MarkRead")
	}

	first := *n.ReadAt
	n.MarkRead()
	if !n.ReadAt.Equal(first) {
		t.Error("Expected repeated MarkRead to keep the original read time")
	}

	n.MarkUnread()
	if n.IsRead() {
		t.Error("Expected notification to be unread after MarkUnread")
	}
}
