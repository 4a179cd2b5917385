package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgardner/taskflow-api/internal/domain"
)

func subscriptionFor(t *testing.T, userID uuid.UUID) *domain.WebhookSubscription {
	t.Helper()

	sub, err := domain.NewWebhookSubscription(
		userID,
		"ci-bot",
		"https://hooks.example.com/taskflow",
		[]domain.EventKind{domain.EventKindMention},
	)
	require.NoError(t, err)
	return sub
}

func TestWebhookCreate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("returns the secret exactly once", func(t *testing.T) {
		webhooks := newFakeWebhookStore()
		handler := NewWebhookHandler(webhooks, passthroughTx)

		body := `{"name":"ci-bot","url":"https://hooks.example.com/taskflow","event_filter":["mention","task_assigned"]}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/webhooks", strings.NewReader(body)), userID)
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var created struct {
			ID     uuid.UUID `json:"id"`
			Secret string    `json:"secret"`
			Active bool      `json:"active"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Len(t, created.Secret, 64, "hex-encoded 32-byte secret")
		assert.True(t, created.Active)

		// Subsequent reads omit the secret
		getReq := withPathParam(
			withUser(httptest.NewRequest(http.MethodGet, "/api/webhooks/"+created.ID.String(), nil), userID),
			"id", created.ID.String())
		getRec := httptest.NewRecorder()

		handler.Get(getRec, getReq)

		require.Equal(t, http.StatusOK, getRec.Code)
		assert.NotContains(t, getRec.Body.String(), created.Secret)
		assert.NotContains(t, getRec.Body.String(), `"secret"`)
	})

	t.Run("unknown event kind rejected", func(t *testing.T) {
		handler := NewWebhookHandler(newFakeWebhookStore(), passthroughTx)

		body := `{"name":"ci-bot","url":"https://hooks.example.com/x","event_filter":["bogus"]}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/webhooks", strings.NewReader(body)), userID)
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty filter rejected", func(t *testing.T) {
		handler := NewWebhookHandler(newFakeWebhookStore(), passthroughTx)

		body := `{"name":"ci-bot","url":"https://hooks.example.com/x","event_filter":[]}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/webhooks", strings.NewReader(body)), userID)
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid url rejected", func(t *testing.T) {
		handler := NewWebhookHandler(newFakeWebhookStore(), passthroughTx)

		body := `{"name":"ci-bot","url":"not-a-url","event_filter":["mention"]}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/webhooks", strings.NewReader(body)), userID)
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWebhookListAndGet(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("lists only own subscriptions without secrets", func(t *testing.T) {
		mine := subscriptionFor(t, userID)
		other := subscriptionFor(t, uuid.New())
		handler := NewWebhookHandler(newFakeWebhookStore(mine, other), passthroughTx)

		req := withUser(httptest.NewRequest(http.MethodGet, "/api/webhooks", nil), userID)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var listed []*domain.WebhookSubscription
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
		require.Len(t, listed, 1)
		assert.Equal(t, mine.ID, listed[0].ID)
		assert.NotContains(t, rec.Body.String(), mine.Secret)
	})

	t.Run("someone else's subscription is not found", func(t *testing.T) {
		other := subscriptionFor(t, uuid.New())
		handler := NewWebhookHandler(newFakeWebhookStore(other), passthroughTx)

		req := withPathParam(
			withUser(httptest.NewRequest(http.MethodGet, "/api/webhooks/"+other.ID.String(), nil), userID),
			"id", other.ID.String())
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestWebhookUpdate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	updateReq := func(sub *domain.WebhookSubscription, body string) *http.Request {
		return withPathParam(
			withUser(httptest.NewRequest(http.MethodPut, "/api/webhooks/"+sub.ID.String(), strings.NewReader(body)), userID),
			"id", sub.ID.String())
	}

	t.Run("edits name, url and filter in one transaction", func(t *testing.T) {
		sub := subscriptionFor(t, userID)
		webhooks := newFakeWebhookStore(sub)
		txRuns := &countingTxRunner{}
		handler := NewWebhookHandler(webhooks, txRuns.run)

		body := `{"name":"renamed","url":"https://hooks.example.com/v2","event_filter":["task_completed"]}`
		rec := httptest.NewRecorder()

		handler.Update(rec, updateReq(sub, body))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "renamed", sub.Name)
		assert.Equal(t, "https://hooks.example.com/v2", sub.URL)
		assert.Equal(t, []domain.EventKind{domain.EventKindTaskCompleted}, sub.EventFilter)
		assert.Equal(t, 1, txRuns.calls, "write and read-back should share one transaction")
	})

	t.Run("non-http scheme rejected", func(t *testing.T) {
		sub := subscriptionFor(t, userID)
		handler := NewWebhookHandler(newFakeWebhookStore(sub), passthroughTx)

		body := `{"name":"renamed","url":"ftp://evil.example/hook","event_filter":["mention"]}`
		rec := httptest.NewRecorder()

		handler.Update(rec, updateReq(sub, body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "https://hooks.example.com/taskflow", sub.URL, "rejected update must not persist")
	})

	t.Run("relative url rejected", func(t *testing.T) {
		sub := subscriptionFor(t, userID)
		handler := NewWebhookHandler(newFakeWebhookStore(sub), passthroughTx)

		body := `{"name":"renamed","url":"/relative/hook","event_filter":["mention"]}`
		rec := httptest.NewRecorder()

		handler.Update(rec, updateReq(sub, body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "https://hooks.example.com/taskflow", sub.URL)
	})
}

func TestWebhookEnableDisable(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("enable resets the failure count", func(t *testing.T) {
		sub := subscriptionFor(t, userID)
		sub.Active = false
		sub.FailureCount = 5
		handler := NewWebhookHandler(newFakeWebhookStore(sub), passthroughTx)

		req := withPathParam(
			withUser(httptest.NewRequest(http.MethodPost, "/api/webhooks/"+sub.ID.String()+"/enable", nil), userID),
			"id", sub.ID.String())
		rec := httptest.NewRecorder()

		handler.Enable(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, sub.Active)
		assert.Zero(t, sub.FailureCount)
	})

	t.Run("disable", func(t *testing.T) {
		sub := subscriptionFor(t, userID)
		handler := NewWebhookHandler(newFakeWebhookStore(sub), passthroughTx)

		req := withPathParam(
			withUser(httptest.NewRequest(http.MethodPost, "/api/webhooks/"+sub.ID.String()+"/disable", nil), userID),
			"id", sub.ID.String())
		rec := httptest.NewRecorder()

		handler.Disable(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, sub.Active)
	})
}

func TestWebhookDelete(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sub := subscriptionFor(t, userID)
	webhooks := newFakeWebhookStore(sub)
	handler := NewWebhookHandler(webhooks, passthroughTx)

	req := withPathParam(
		withUser(httptest.NewRequest(http.MethodDelete, "/api/webhooks/"+sub.ID.String(), nil), userID),
		"id", sub.ID.String())
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, webhooks.subs)
}
