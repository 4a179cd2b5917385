package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rgardner/taskflow-api/internal/domain"
	"github.com/rgardner/taskflow-api/internal/store"
)

// Dispatch result messages. The no-match message is distinct from the
// attempted case so callers can tell "nothing to do" apart from "attempted
// but zero succeeded".
const (
	NoMatchMessage = "no active webhooks for this event"
)

// DefaultDeliveryTimeout bounds each individual endpoint POST.
const DefaultDeliveryTimeout = 5 * time.Second

// DeliveryResult records the outcome of a single endpoint delivery.
type DeliveryResult struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	Success        bool      `json:"success"`
	StatusCode     int       `json:"status_code,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// DispatchResult summarizes a dispatch run across all matched subscriptions.
type DispatchResult struct {
	NotificationID uuid.UUID        `json:"notification_id"`
	Message        string           `json:"message"`
	Matched        int              `json:"matched"`
	Delivered      int              `json:"delivered"`
	Failed         int              `json:"failed"`
	Results        []DeliveryResult `json:"results"`
}

// DispatcherConfig holds delivery tuning for the dispatcher.
type DispatcherConfig struct {
	// DeliveryTimeout bounds each individual endpoint POST.
	// If zero, DefaultDeliveryTimeout applies.
	DeliveryTimeout time.Duration

	// FailureThreshold is the consecutive-failure count at which a
	// subscription is automatically disabled.
	// If zero, domain.WebhookFailureThreshold applies.
	FailureThreshold int
}

// HTTPDispatcher delivers notifications to webhook endpoints over HTTP.
type HTTPDispatcher struct {
	notifications store.NotificationStore
	webhooks      store.WebhookStore
	users         store.UserStore
	client        *http.Client
	config        DispatcherConfig
	logger        *slog.Logger
}

// NewHTTPDispatcher creates a dispatcher backed by the given stores.
// A nil client selects a default HTTP client.
func NewHTTPDispatcher(
	notifications store.NotificationStore,
	webhooks store.WebhookStore,
	users store.UserStore,
	client *http.Client,
	config DispatcherConfig,
	logger *slog.Logger,
) *HTTPDispatcher {
	if client == nil {
		client = &http.Client{}
	}
	if config.DeliveryTimeout == 0 {
		config.DeliveryTimeout = DefaultDeliveryTimeout
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = domain.WebhookFailureThreshold
	}
	return &HTTPDispatcher{
		notifications: notifications,
		webhooks:      webhooks,
		users:         users,
		client:        client,
		config:        config,
		logger:        logger.With("component", "webhook_dispatcher"),
	}
}

// Dispatch loads the notification, matches it against the recipient's active
// subscriptions, and POSTs the signed payload to each matching endpoint.
//
// Delivery failures are data in the result, not errors: each failed endpoint
// gets its failure counter bumped and shows up in Results with Success=false.
// Dispatch itself only fails when storage does, for example when the
// notification no longer exists or a health update cannot be recorded.
func (d *HTTPDispatcher) Dispatch(
	ctx context.Context,
	notificationID uuid.UUID,
) (*DispatchResult, error) {
	log := d.logger.With("notification_id", notificationID)

	n, err := d.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}

	subs, err := d.webhooks.ListActiveForEvent(ctx, n.RecipientID, n.EventKind)
	if err != nil {
		return nil, fmt.Errorf("failed to match webhook subscriptions: %w", err)
	}

	result := &DispatchResult{
		NotificationID: notificationID,
		Matched:        len(subs),
		Results:        []DeliveryResult{},
	}

	if len(subs) == 0 {
		result.Message = NoMatchMessage
		log.Debug("no matching webhook subscriptions", "event_kind", n.EventKind)
		return result, nil
	}

	recipient, err := d.users.GetByID(ctx, n.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	actor, err := d.users.GetByID(ctx, n.ActorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actor: %w", err)
	}

	payload, err := BuildEnvelope(n, recipient, actor)
	if err != nil {
		return nil, err
	}

	// Health updates are storage writes; if one fails the dispatch still
	// finishes the remaining endpoints and the first error is returned.
	var healthErr error

	for _, sub := range subs {
		// A subscription can be disabled while a batch is in flight, either
		// by its owner or by the failure threshold during a concurrent
		// dispatch. Re-check right before the POST so disabled endpoints
		// stop receiving calls immediately.
		active, err := d.webhooks.IsActive(ctx, sub.ID)
		if err != nil {
			log.Error("failed to re-check subscription state",
				"subscription_id", sub.ID, "error", err)
			if healthErr == nil {
				healthErr = fmt.Errorf("failed to re-check subscription state: %w", err)
			}
			continue
		}
		if !active {
			log.Info("skipping subscription disabled mid-dispatch",
				"subscription_id", sub.ID)
			continue
		}

		delivery := d.deliver(ctx, sub, n, payload)
		result.Results = append(result.Results, delivery)

		if delivery.Success {
			result.Delivered++
			if err := d.webhooks.RecordSuccess(ctx, sub.ID); err != nil {
				log.Error("failed to record delivery success",
					"subscription_id", sub.ID, "error", err)
				if healthErr == nil {
					healthErr = fmt.Errorf("failed to record delivery success: %w", err)
				}
			}
		} else {
			result.Failed++
			count, disabled, err := d.webhooks.RecordFailure(ctx, sub.ID, d.config.FailureThreshold)
			if err != nil {
				log.Error("failed to record delivery failure",
					"subscription_id", sub.ID, "error", err)
				if healthErr == nil {
					healthErr = fmt.Errorf("failed to record delivery failure: %w", err)
				}
				continue
			}
			if disabled {
				log.Warn("subscription disabled after repeated failures",
					"subscription_id", sub.ID,
					"failure_count", count)
			}
		}
	}

	result.Message = fmt.Sprintf("delivered to %d webhook endpoints", result.Delivered)
	log.Info("dispatch finished",
		"event_kind", n.EventKind,
		"matched", result.Matched,
		"delivered", result.Delivered,
		"failed", result.Failed)
	return result, healthErr
}

// deliver POSTs the signed payload to a single subscription endpoint.
// Any non-2xx response, network error, or timeout counts as a failure.
func (d *HTTPDispatcher) deliver(
	ctx context.Context,
	sub *domain.WebhookSubscription,
	n *domain.Notification,
	payload []byte,
) DeliveryResult {
	result := DeliveryResult{SubscriptionID: sub.ID}

	callCtx, cancel := context.WithTimeout(ctx, d.config.DeliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, sub.URL, bytes.NewReader(payload))
	if err != nil {
		result.Error = fmt.Sprintf("failed to build request: %v", err)
		return result
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, string(n.EventKind))
	req.Header.Set(SignatureHeader, Sign(sub.Secret, payload))

	resp, err := d.client.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	result.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("endpoint returned status %d", resp.StatusCode)
		return result
	}

	result.Success = true
	return result
}
