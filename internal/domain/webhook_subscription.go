package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// WebhookFailureThreshold is the number of consecutive delivery failures
// after which a subscription is automatically disabled by the system.
const WebhookFailureThreshold = 5

// webhookSecretBytes is the number of random bytes in a generated endpoint
// secret (hex-encoded to twice this length).
const webhookSecretBytes = 32

// WebhookSubscription-specific validation errors
var (
	// ErrWebhookIDEmpty is returned when a subscription ID is empty or nil.
	ErrWebhookIDEmpty = errors.New("webhook subscription ID cannot be empty")

	// ErrWebhookUserIDEmpty is returned when a subscription's owner ID is empty or nil.
	ErrWebhookUserIDEmpty = errors.New("webhook subscription user ID cannot be empty")

	// ErrWebhookNameEmpty is returned when a subscription has no name.
	ErrWebhookNameEmpty = errors.New("webhook subscription name cannot be empty")

	// ErrWebhookURLInvalid is returned when a subscription URL is not a valid
	// absolute HTTP or HTTPS URL.
	ErrWebhookURLInvalid = errors.New("webhook URL must be a valid http or https URL")

	// ErrWebhookFilterEmpty is returned when a subscription listens to no event kinds.
	ErrWebhookFilterEmpty = errors.New("webhook event filter cannot be empty")

	// ErrWebhookSecretEmpty is returned when a subscription has no signing secret.
	ErrWebhookSecretEmpty = errors.New("webhook secret cannot be empty")

	// ErrWebhookFailureCountNegative is returned when a failure count is negative.
	ErrWebhookFailureCountNegative = errors.New("webhook failure count cannot be negative")
)

// WebhookSubscription is one user's registered HTTP endpoint together with
// its event filter and delivery health counters.
//
// The secret is generated server-side exactly once at creation and never
// regenerated; store reads omit it unless the caller explicitly asks for it
// (signing needs it, API responses never include it).
//
// Health accounting: FailureCount resets to 0 on any successful delivery and
// on an explicit owner enable. When it reaches WebhookFailureThreshold the
// system forces Active to false; only the owner can re-enable.
type WebhookSubscription struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	Name          string      `json:"name"`
	URL           string      `json:"url"`
	EventFilter   []EventKind `json:"event_filter"`
	Secret        string      `json:"-"` // Never expose the signing secret in JSON
	Active        bool        `json:"active"`
	FailureCount  int         `json:"failure_count"`
	LastFailureAt *time.Time  `json:"last_failure_at,omitempty"`
	LastSuccessAt *time.Time  `json:"last_success_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewWebhookSubscription creates a new active subscription for the given
// owner, generating the endpoint secret. Returns an error if validation fails.
func NewWebhookSubscription(
	userID uuid.UUID,
	name, rawURL string,
	filter []EventKind,
) (*WebhookSubscription, error) {
	secret, err := GenerateWebhookSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate webhook secret: %w", err)
	}

	now := time.Now().UTC()
	sub := &WebhookSubscription{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		URL:         rawURL,
		EventFilter: filter,
		Secret:      secret,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := sub.Validate(); err != nil {
		return nil, err
	}

	return sub, nil
}

// GenerateWebhookSecret produces a hex-encoded random endpoint secret.
func GenerateWebhookSecret() (string, error) {
	b := make([]byte, webhookSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Validate checks if the WebhookSubscription has valid data.
// Returns an error if any field fails validation.
func (s *WebhookSubscription) Validate() error {
	if s.ID == uuid.Nil {
		return ErrWebhookIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrWebhookUserIDEmpty
	}

	if s.Name == "" {
		return ErrWebhookNameEmpty
	}

	if !ValidWebhookURL(s.URL) {
		return ErrWebhookURLInvalid
	}

	if len(s.EventFilter) == 0 {
		return ErrWebhookFilterEmpty
	}

	for _, kind := range s.EventFilter {
		if !kind.IsValid() {
			return fmt.Errorf("%w: %q in event filter", ErrUnknownEventKind, kind)
		}
	}

	if s.Secret == "" {
		return ErrWebhookSecretEmpty
	}

	if s.FailureCount < 0 {
		return ErrWebhookFailureCountNegative
	}

	return nil
}

// ListensTo reports whether the subscription's event filter contains the
// given event kind.
func (s *WebhookSubscription) ListensTo(kind EventKind) bool {
	for _, k := range s.EventFilter {
		if k == kind {
			return true
		}
	}
	return false
}

// ValidWebhookURL reports whether raw is an absolute http or https URL with
// a host. Every write path for a subscription URL must pass it; delivery
// only ever POSTs to URLs that did.
func ValidWebhookURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
