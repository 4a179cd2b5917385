package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/rgardner/taskflow-api/internal/api/shared"
	"github.com/rgardner/taskflow-api/internal/domain"
	"github.com/rgardner/taskflow-api/internal/store"
)

// defaultNotificationLimit caps a listing when the client does not ask for
// a specific page size.
const defaultNotificationLimit = 50

// NotificationHandler handles the recipient-scoped notification endpoints.
type NotificationHandler struct {
	notifications store.NotificationStore
	runTx         TxRunner
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications store.NotificationStore, runTx TxRunner) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, runTx: runTx}
}

// List handles GET /api/notifications.
// Supported query parameters: unread=true, event_kind=<kind>, limit, offset.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	filter := store.NotificationFilter{Limit: defaultNotificationLimit}

	if unread := r.URL.Query().Get("unread"); unread != "" {
		filter.UnreadOnly = unread == "true" || unread == "1"
	}

	if rawKind := r.URL.Query().Get("event_kind"); rawKind != "" {
		kind := domain.EventKind(rawKind)
		if !kind.IsValid() {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Unknown event kind")
			return
		}
		filter.EventKind = kind
	}

	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit < 1 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	if rawOffset := r.URL.Query().Get("offset"); rawOffset != "" {
		offset, err := strconv.Atoi(rawOffset)
		if err != nil || offset < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid offset")
			return
		}
		filter.Offset = offset
	}

	notifications, err := h.notifications.ListByRecipient(r.Context(), userID, filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to list notifications", err)
		return
	}

	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, notifications)
}

// UnreadCount handles GET /api/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	count, err := h.notifications.CountUnread(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to count notifications", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UnreadCountResponse{UnreadCount: count})
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.mutateOne(w, r, store.NotificationStore.MarkRead)
}

// MarkUnread handles POST /api/notifications/{id}/unread.
func (h *NotificationHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	h.mutateOne(w, r, store.NotificationStore.MarkUnread)
}

// Delete handles DELETE /api/notifications/{id}.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := h.notifications.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, store.ErrNotificationNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Notification not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to delete notification", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles POST /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	updated, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to mark notifications read", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MarkAllReadResponse{Updated: updated})
}

// mutateOne runs one recipient-scoped single-notification mutation
// (read/unread toggle) and returns the resulting notification. The mutation
// and the read-back run in one transaction so the response is the state the
// mutation left behind.
func (h *NotificationHandler) mutateOne(
	w http.ResponseWriter,
	r *http.Request,
	mutate func(notifications store.NotificationStore, ctx context.Context, recipientID, id uuid.UUID) error,
) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	var notification *domain.Notification
	err = h.runTx(r.Context(), func(ctx context.Context, tx *sql.Tx) error {
		notifications := h.notifications.WithTx(tx)
		if err := mutate(notifications, ctx, userID, id); err != nil {
			return err
		}
		mutated, err := notifications.GetForRecipient(ctx, userID, id)
		if err != nil {
			return err
		}
		notification = mutated
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotificationNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Notification not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to update notification", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, notification)
}
