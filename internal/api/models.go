package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/rgardner/taskflow-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
	Password    string `json:"password"     validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh
// endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UnreadCountResponse carries the recipient's unread notification count.
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// MarkAllReadResponse reports how many notifications a read-all touched.
type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

// CreateWebhookRequest defines the payload for registering a webhook
// subscription.
type CreateWebhookRequest struct {
	Name        string   `json:"name"         validate:"required,min=1,max=100"`
	URL         string   `json:"url"          validate:"required,url"`
	EventFilter []string `json:"event_filter" validate:"required,min=1"`
}

// UpdateWebhookRequest defines the payload for editing a webhook
// subscription. The secret is not editable.
type UpdateWebhookRequest struct {
	Name        string   `json:"name"         validate:"required,min=1,max=100"`
	URL         string   `json:"url"          validate:"required,url"`
	EventFilter []string `json:"event_filter" validate:"required,min=1"`
}

// CreateWebhookResponse is the creation response: the subscription plus the
// signing secret, returned here and never again.
type CreateWebhookResponse struct {
	*domain.WebhookSubscription

	// Secret overrides the subscription's json:"-" tag for this one response.
	Secret string `json:"secret"`
}

// CreateCommentRequest defines the payload for commenting on a task.
type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=10000"`
}

// UpdateTaskStatusRequest defines the payload for a task status transition.
type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AssignTaskRequest defines the payload for assigning a task.
type AssignTaskRequest struct {
	AssigneeID uuid.UUID `json:"assignee_id" validate:"required"`
}

// CommentResponse is returned after a comment is created, reporting how many
// notifications the comment fanned out.
type CommentResponse struct {
	ID                   uuid.UUID `json:"id"`
	TaskID               uuid.UUID `json:"task_id"`
	AuthorID             uuid.UUID `json:"author_id"`
	Body                 string    `json:"body"`
	CreatedAt            time.Time `json:"created_at"`
	NotificationsCreated int       `json:"notifications_created"`
}

// TaskActionResponse is returned after a status change or assignment.
type TaskActionResponse struct {
	Task                 *domain.Task `json:"task"`
	NotificationsCreated int          `json:"notifications_created"`
}
