package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/rgardner/taskflow-api/internal/api/shared"
	"github.com/rgardner/taskflow-api/internal/domain"
	"github.com/rgardner/taskflow-api/internal/store"
)

// WebhookHandler handles the owner-scoped webhook subscription endpoints.
type WebhookHandler struct {
	webhooks  store.WebhookStore
	runTx     TxRunner
	validator *validator.Validate
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhooks store.WebhookStore, runTx TxRunner) *WebhookHandler {
	return &WebhookHandler{
		webhooks:  webhooks,
		runTx:     runTx,
		validator: validator.New(),
	}
}

// Create handles POST /api/webhooks. The response is the only place the
// signing secret ever appears; subsequent reads omit it.
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req CreateWebhookRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	filter, err := parseEventFilter(req.EventFilter)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := domain.NewWebhookSubscription(userID, req.Name, req.URL, filter)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid subscription: "+err.Error())
		return
	}

	if err := h.webhooks.Create(r.Context(), sub); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to create webhook subscription", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, CreateWebhookResponse{
		WebhookSubscription: sub,
		Secret:              sub.Secret,
	})
}

// List handles GET /api/webhooks.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	subs, err := h.webhooks.ListByUser(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to list webhook subscriptions", err)
		return
	}

	if subs == nil {
		subs = []*domain.WebhookSubscription{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, subs)
}

// Get handles GET /api/webhooks/{id}.
func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid webhook ID")
		return
	}

	sub, err := h.webhooks.GetByID(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, store.ErrWebhookNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Webhook subscription not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load webhook subscription", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sub)
}

// Update handles PUT /api/webhooks/{id}, editing name, URL and event filter.
func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid webhook ID")
		return
	}

	var req UpdateWebhookRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	filter, err := parseEventFilter(req.EventFilter)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if !domain.ValidWebhookURL(req.URL) {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Invalid subscription: "+domain.ErrWebhookURLInvalid.Error())
		return
	}

	update := store.WebhookUpdate{
		Name:        req.Name,
		URL:         req.URL,
		EventFilter: filter,
	}

	// The write and the read-back share one transaction so the response is
	// exactly the state this update produced.
	var sub *domain.WebhookSubscription
	err = h.runTx(r.Context(), func(ctx context.Context, tx *sql.Tx) error {
		webhooks := h.webhooks.WithTx(tx)
		if err := webhooks.Update(ctx, userID, id, update); err != nil {
			return err
		}
		updated, err := webhooks.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}
		sub = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrWebhookNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Webhook subscription not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to update webhook subscription", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sub)
}

// Enable handles POST /api/webhooks/{id}/enable. Enabling resets the failure
// count, giving the endpoint a clean slate.
func (h *WebhookHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// Disable handles POST /api/webhooks/{id}/disable.
func (h *WebhookHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// Delete handles DELETE /api/webhooks/{id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid webhook ID")
		return
	}

	if err := h.webhooks.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, store.ErrWebhookNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Webhook subscription not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to delete webhook subscription", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WebhookHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid webhook ID")
		return
	}

	var sub *domain.WebhookSubscription
	err = h.runTx(r.Context(), func(ctx context.Context, tx *sql.Tx) error {
		webhooks := h.webhooks.WithTx(tx)
		if err := webhooks.SetActive(ctx, userID, id, active); err != nil {
			return err
		}
		updated, err := webhooks.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}
		sub = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrWebhookNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Webhook subscription not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to update webhook subscription", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sub)
}

// parseEventFilter converts raw strings to event kinds, rejecting unknowns.
func parseEventFilter(raw []string) ([]domain.EventKind, error) {
	filter := make([]domain.EventKind, 0, len(raw))
	for _, s := range raw {
		kind := domain.EventKind(s)
		if !kind.IsValid() {
			return nil, errors.New("unknown event kind: " + s)
		}
		filter = append(filter, kind)
	}
	return filter, nil
}
