package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/rgardner/taskflow-api/internal/config"
	"github.com/rgardner/taskflow-api/internal/service/stream"
)

func newTestStreamHandler() *StreamHandler {
	emitter := stream.NewEmitter(
		newFakeNotificationStore(),
		newFakeUserStore(),
		config.StreamConfig{HeartbeatSeconds: 15, WindowSeconds: 20},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return NewStreamHandler(emitter)
}

func TestStreamHandler(t *testing.T) {
	t.Parallel()

	t.Run("unauthenticated request gets 401 before any stream bytes", func(t *testing.T) {
		handler := newTestStreamHandler()

		req := httptest.NewRequest(http.MethodGet, "/api/notifications/stream", nil)
		rec := httptest.NewRecorder()

		handler.Stream(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotContains(t, rec.Body.String(), "event:")
	})

	t.Run("sets SSE headers and emits the connected ping", func(t *testing.T) {
		handler := newTestStreamHandler()

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // the stream ends right after the handshake ping

		req := httptest.NewRequest(http.MethodGet, "/api/notifications/stream?token=x", nil)
		req = withUser(req.WithContext(ctx), uuid.New())
		rec := httptest.NewRecorder()

		handler.Stream(rec, req)

		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
		assert.Contains(t, rec.Body.String(), "event: ping\n")
	})
}
