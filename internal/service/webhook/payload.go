package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rgardner/taskflow-api/internal/domain"
)

// NotificationPayload is the rendered notification carried in the envelope.
// It contains the human-readable message and target URL derived from the
// notification's metadata, never the subscription secret.
type NotificationPayload struct {
	ID        uuid.UUID         `json:"id"`
	EventKind string            `json:"event_kind"`
	Message   string            `json:"message"`
	URL       string            `json:"url"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// UserSummary identifies a user in the payload without exposing credentials.
type UserSummary struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
}

// Envelope is the JSON body POSTed to webhook endpoints.
type Envelope struct {
	Event string       `json:"event"`
	Data  EnvelopeData `json:"data"`
}

// EnvelopeData groups the rendered notification with identity summaries for
// the recipient and the acting user.
type EnvelopeData struct {
	Notification NotificationPayload `json:"notification"`
	User         UserSummary         `json:"user"`
	Actor        UserSummary         `json:"actor"`
}

// BuildEnvelope renders the notification into the delivery envelope and
// serializes it. The returned bytes are exactly what gets signed and sent.
func BuildEnvelope(
	n *domain.Notification,
	recipient *domain.User,
	actor *domain.User,
) ([]byte, error) {
	envelope := Envelope{
		Event: string(n.EventKind),
		Data: EnvelopeData{
			Notification: NotificationPayload{
				ID:        n.ID,
				EventKind: string(n.EventKind),
				Message:   RenderMessage(n, actor.DisplayName),
				URL:       RenderURL(n),
				Metadata:  n.Metadata,
				CreatedAt: n.CreatedAt,
			},
			User: UserSummary{
				ID:          recipient.ID,
				DisplayName: recipient.DisplayName,
			},
			Actor: UserSummary{
				ID:          actor.ID,
				DisplayName: actor.DisplayName,
			},
		},
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize webhook payload: %w", err)
	}
	return payload, nil
}

// RenderMessage produces the human-readable message for a notification from
// its event kind and metadata. Unknown kinds fall back to a generic message
// rather than failing, so rendering never blocks delivery.
func RenderMessage(n *domain.Notification, actorName string) string {
	meta := n.Metadata

	switch n.EventKind {
	case domain.EventKindMention:
		return fmt.Sprintf("%s mentioned you in a comment on %q", actorName, meta["task_title"])
	case domain.EventKindTaskAssigned:
		return fmt.Sprintf("%s assigned you the task %q", actorName, meta["task_title"])
	case domain.EventKindTaskCompleted:
		return fmt.Sprintf("%s completed the task %q", actorName, meta["task_title"])
	case domain.EventKindCommentAdded:
		return fmt.Sprintf("%s commented on %q", actorName, meta["task_title"])
	case domain.EventKindDeadlineSoon:
		return fmt.Sprintf("the task %q is due soon", meta["task_title"])
	case domain.EventKindProjectShared:
		return fmt.Sprintf("%s shared the project %q with you", actorName, meta["project_name"])
	case domain.EventKindTaskStatusChanged:
		return fmt.Sprintf("%s moved %q from %s to %s",
			actorName, meta["task_title"], meta["old_status"], meta["new_status"])
	default:
		return fmt.Sprintf("%s notification (%s %s)", n.EventKind, n.Subject.Kind, n.Subject.ID)
	}
}

// RenderURL produces the in-app target URL for a notification's subject.
// Unknown subject kinds render as an empty URL rather than failing.
func RenderURL(n *domain.Notification) string {
	switch n.Subject.Kind {
	case domain.SubjectKindTask:
		return fmt.Sprintf("/tasks/%s", n.Subject.ID)
	case domain.SubjectKindComment:
		if taskID, ok := n.Metadata["task_id"]; ok {
			return fmt.Sprintf("/tasks/%s#comment-%s", taskID, n.Subject.ID)
		}
		return fmt.Sprintf("/comments/%s", n.Subject.ID)
	case domain.SubjectKindProject:
		return fmt.Sprintf("/projects/%s", n.Subject.ID)
	default:
		return ""
	}
}
