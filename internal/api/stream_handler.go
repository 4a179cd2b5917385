package api

import (
	"net/http"

	"github.com/rgardner/taskflow-api/internal/api/shared"
	"github.com/rgardner/taskflow-api/internal/service/stream"
)

// StreamHandler handles GET /api/notifications/stream, the SSE endpoint.
// Authentication happens in middleware (query token) before this handler
// runs, so an invalid token gets a 401 before any stream bytes are written.
type StreamHandler struct {
	emitter *stream.Emitter
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(emitter *stream.Emitter) *StreamHandler {
	return &StreamHandler{emitter: emitter}
}

// Stream serves the live notification stream for the authenticated user.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError,
			"Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := h.emitter.Stream(r.Context(), w, flusher, userID); err != nil {
		// Headers are already written; nothing useful can be sent. The
		// emitter has logged the fault.
		return
	}
}
