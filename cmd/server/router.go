package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rgardner/taskflow-api/internal/api"
	apiMiddleware "github.com/rgardner/taskflow-api/internal/api/middleware"
	"github.com/rgardner/taskflow-api/internal/store"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordHasher,
		app.passwordVerifier,
	)
	runTx := api.TxRunner(func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, app.db, fn)
	})
	notificationHandler := api.NewNotificationHandler(app.notificationStore, runTx)
	webhookHandler := api.NewWebhookHandler(app.webhookStore, runTx)
	taskHandler := api.NewTaskHandler(
		app.taskStore,
		app.commentStore,
		app.userStore,
		app.commentNotifier,
		app.taskNotifier,
		runTx,
	)
	streamHandler := api.NewStreamHandler(app.streamEmitter)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// The SSE stream authenticates via query parameter because
		// EventSource cannot set request headers.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthenticateQueryToken)
			r.Get("/notifications/stream", streamHandler.Stream)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Notification endpoints
			r.Get("/notifications", notificationHandler.List)
			r.Get("/notifications/unread-count", notificationHandler.UnreadCount)
			r.Post("/notifications/read-all", notificationHandler.MarkAllRead)
			r.Post("/notifications/{id}/read", notificationHandler.MarkRead)
			r.Post("/notifications/{id}/unread", notificationHandler.MarkUnread)
			r.Delete("/notifications/{id}", notificationHandler.Delete)

			// Webhook subscription endpoints
			r.Post("/webhooks", webhookHandler.Create)
			r.Get("/webhooks", webhookHandler.List)
			r.Get("/webhooks/{id}", webhookHandler.Get)
			r.Put("/webhooks/{id}", webhookHandler.Update)
			r.Post("/webhooks/{id}/enable", webhookHandler.Enable)
			r.Post("/webhooks/{id}/disable", webhookHandler.Disable)
			r.Delete("/webhooks/{id}", webhookHandler.Delete)

			// Task endpoints that trigger notification fan-out
			r.Post("/tasks/{id}/comments", taskHandler.CreateComment)
			r.Post("/tasks/{id}/status", taskHandler.UpdateStatus)
			r.Post("/tasks/{id}/assign", taskHandler.Assign)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
