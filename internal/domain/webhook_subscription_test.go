package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewWebhookSubscription(t *testing.T) {
	owner := uuid.New()

	sub, err := NewWebhookSubscription(
		owner,
		"CI bridge",
		"https://hooks.example.com/taskflow",
		[]EventKind{EventKindMention, EventKindTaskCompleted},
	)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if sub.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if !sub.Active {
		t.Error("Expected new subscription to be active")
	}

	if sub.FailureCount != 0 {
		t.Errorf("Expected zero failure count, got %d", sub.FailureCount)
	}

	// Secret is hex of 32 random bytes
	if len(sub.Secret) != 64 {
		t.Errorf("Expected 64-character secret, got %d characters", len(sub.Secret))
	}
}

func TestNewWebhookSubscription_DistinctSecrets(t *testing.T) {
	owner := uuid.New()
	filter := []EventKind{EventKindMention}

	a, err := NewWebhookSubscription(owner, "a", "https://a.example.com", filter)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	b, err := NewWebhookSubscription(owner, "b", "https://b.example.com", filter)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if a.Secret == b.Secret {
		t.Error("Expected each subscription to get its own secret")
	}
}

func TestWebhookSubscriptionValidate(t *testing.T) {
	valid := WebhookSubscription{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Name:        "ops",
		URL:         "https://hooks.example.com/x",
		EventFilter: []EventKind{EventKindCommentAdded},
		Secret:      "abc123",
		Active:      true,
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(s *WebhookSubscription)
		wantErr error
	}{
		{"nil ID", func(s *WebhookSubscription) { s.ID = uuid.Nil }, ErrWebhookIDEmpty},
		{"nil user", func(s *WebhookSubscription) { s.UserID = uuid.Nil }, ErrWebhookUserIDEmpty},
		{"empty name", func(s *WebhookSubscription) { s.Name = "" }, ErrWebhookNameEmpty},
		{"bad scheme", func(s *WebhookSubscription) { s.URL = "ftp://example.com" }, ErrWebhookURLInvalid},
		{"no host", func(s *WebhookSubscription) { s.URL = "https://" }, ErrWebhookURLInvalid},
		{"empty filter", func(s *WebhookSubscription) { s.EventFilter = nil }, ErrWebhookFilterEmpty},
		{
			"unknown kind in filter",
			func(s *WebhookSubscription) { s.EventFilter = []EventKind{"nope"} },
			ErrUnknownEventKind,
		},
		{"empty secret", func(s *WebhookSubscription) { s.Secret = "" }, ErrWebhookSecretEmpty},
		{"negative failures", func(s *WebhookSubscription) { s.FailureCount = -1 }, ErrWebhookFailureCountNegative},
	}

	for _, tc := range cases {
		sub := valid
		tc.mutate(&sub)
		if err := sub.Validate(); !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected error %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestWebhookSubscriptionListensTo(t *testing.T) {
	sub := WebhookSubscription{
		EventFilter: []EventKind{EventKindMention, EventKindTaskStatusChanged},
	}

	if !sub.ListensTo(EventKindMention) {
		t.Error("Expected subscription to listen to mention")
	}

	if sub.ListensTo(EventKindTaskCompleted) {
		t.Error("Expected subscription to ignore task_completed")
	}
}
