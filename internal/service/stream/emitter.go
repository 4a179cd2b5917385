package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rgardner/taskflow-api/internal/config"
	"github.com/rgardner/taskflow-api/internal/service/webhook"
	"github.com/rgardner/taskflow-api/internal/store"
)

// SSE event type names.
const (
	EventTypePing         = "ping"
	EventTypeNotification = "notification"
)

// pingEvent is the payload of connection-confirmation and heartbeat events.
type pingEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// notificationEvent is the payload of a streamed notification: the rendered
// notification plus the actor's identity summary.
type notificationEvent struct {
	webhook.NotificationPayload
	Actor webhook.UserSummary `json:"actor"`
}

// Emitter runs the per-connection streaming loop.
type Emitter struct {
	notifications store.NotificationStore
	users         store.UserStore
	heartbeat     time.Duration
	window        time.Duration
	logger        *slog.Logger

	// now is the clock, replaceable in tests
	now func() time.Time
}

// NewEmitter creates a stream Emitter using the configured heartbeat cadence
// and lookback window.
func NewEmitter(
	notifications store.NotificationStore,
	users store.UserStore,
	cfg config.StreamConfig,
	logger *slog.Logger,
) *Emitter {
	return &Emitter{
		notifications: notifications,
		users:         users,
		heartbeat:     time.Duration(cfg.HeartbeatSeconds) * time.Second,
		window:        time.Duration(cfg.WindowSeconds) * time.Second,
		logger:        logger.With("component", "stream_emitter"),
		now:           time.Now,
	}
}

// Stream runs the connection loop for one authenticated recipient until the
// context is cancelled or a write fails. Both terminations are normal: the
// returned error is reserved for conditions that should surface in logs as
// faults, and a client going away is not one of them.
//
// The caller is responsible for authentication and for setting SSE response
// headers before calling.
func (e *Emitter) Stream(
	ctx context.Context,
	w io.Writer,
	flusher http.Flusher,
	recipientID uuid.UUID,
) error {
	log := e.logger.With("recipient_id", recipientID)
	log.Info("stream connected")

	// Connection-confirmation ping before anything else, so clients learn
	// immediately that the stream is live
	if err := e.writePing(w, flusher); err != nil {
		log.Debug("client disconnected during handshake", "error", err)
		return nil
	}

	ticker := time.NewTicker(e.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("stream closed")
			return nil

		case <-ticker.C:
			// The context may have been cancelled while waiting for the tick
			if ctx.Err() != nil {
				log.Info("stream closed")
				return nil
			}

			if err := e.writePing(w, flusher); err != nil {
				log.Debug("client disconnected", "error", err)
				return nil
			}

			if err := e.pushRecent(ctx, w, flusher, recipientID); err != nil {
				log.Debug("client disconnected", "error", err)
				return nil
			}
		}
	}
}

// pushRecent queries unread notifications created within the lookback window
// and writes each as a notification event, newest first. A query failure is
// logged and skipped; the stream stays up and retries on the next heartbeat.
func (e *Emitter) pushRecent(
	ctx context.Context,
	w io.Writer,
	flusher http.Flusher,
	recipientID uuid.UUID,
) error {
	since := e.now().UTC().Add(-e.window)

	notifications, err := e.notifications.ListUnreadSince(ctx, recipientID, since)
	if err != nil {
		e.logger.Error("failed to query recent notifications",
			"recipient_id", recipientID,
			"error", err)
		return nil
	}

	for _, n := range notifications {
		event := notificationEvent{
			NotificationPayload: webhook.NotificationPayload{
				ID:        n.ID,
				EventKind: string(n.EventKind),
				Metadata:  n.Metadata,
				CreatedAt: n.CreatedAt,
			},
		}

		// Resolve the actor summary; the notification is still worth
		// streaming if the lookup fails
		if actor, err := e.users.GetByID(ctx, n.ActorID); err == nil {
			event.Actor = webhook.UserSummary{ID: actor.ID, DisplayName: actor.DisplayName}
			event.Message = webhook.RenderMessage(n, actor.DisplayName)
		} else {
			event.Actor = webhook.UserSummary{ID: n.ActorID}
			event.Message = webhook.RenderMessage(n, "someone")
		}
		event.URL = webhook.RenderURL(n)

		if err := e.writeEvent(w, flusher, EventTypeNotification, event); err != nil {
			return err
		}
	}

	return nil
}

// writePing emits a ping event carrying the current timestamp.
func (e *Emitter) writePing(w io.Writer, flusher http.Flusher) error {
	return e.writeEvent(w, flusher, EventTypePing, pingEvent{
		Type:      EventTypePing,
		Timestamp: e.now().UTC(),
	})
}

// writeEvent serializes one SSE event and flushes it to the client.
func (e *Emitter) writeEvent(w io.Writer, flusher http.Flusher, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize %s event: %w", eventType, err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		return err
	}

	flusher.Flush()
	return nil
}
