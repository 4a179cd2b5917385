package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/rgardner/taskflow-api/internal/config"
	"github.com/rgardner/taskflow-api/internal/events"
	"github.com/rgardner/taskflow-api/internal/job"
	"github.com/rgardner/taskflow-api/internal/platform/postgres"
	"github.com/rgardner/taskflow-api/internal/service/auth"
	"github.com/rgardner/taskflow-api/internal/service/notifier"
	"github.com/rgardner/taskflow-api/internal/service/stream"
	"github.com/rgardner/taskflow-api/internal/service/webhook"
	"github.com/rgardner/taskflow-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore         store.UserStore
	taskStore         store.TaskStore
	commentStore      store.CommentStore
	projectStore      store.ProjectStore
	notificationStore store.NotificationStore
	webhookStore      store.WebhookStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordHasher   auth.PasswordHasher
	passwordVerifier auth.PasswordVerifier

	// Notification pipeline
	creator         *notifier.Creator
	commentNotifier *notifier.CommentNotifier
	taskNotifier    *notifier.TaskNotifier
	dispatcher      *webhook.HTTPDispatcher
	streamEmitter   *stream.Emitter

	// Event system and background jobs
	eventEmitter events.EventEmitter
	jobRunner    *job.JobRunner
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordHasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost)
	app.taskStore = postgres.NewPostgresTaskStore(db)
	app.commentStore = postgres.NewPostgresCommentStore(db)
	app.projectStore = postgres.NewPostgresProjectStore(db)
	app.notificationStore = postgres.NewPostgresNotificationStore(db)
	app.webhookStore = postgres.NewPostgresWebhookStore(db)

	// Webhook delivery
	app.dispatcher = webhook.NewHTTPDispatcher(
		app.notificationStore,
		app.webhookStore,
		app.userStore,
		nil,
		webhook.DispatcherConfig{
			DeliveryTimeout:  time.Duration(cfg.Webhook.DeliveryTimeoutSeconds) * time.Second,
			FailureThreshold: cfg.Webhook.FailureThreshold,
		},
		logger,
	)

	// Background job processing
	jobStore := postgres.NewPostgresJobStore(db)
	jobStore.RegisterExecutor(job.JobTypeNotificationDispatch,
		notificationDispatchExecutor(app.dispatcher))

	app.jobRunner, err = setupJobRunner(app, jobStore)
	if err != nil {
		return nil, fmt.Errorf("failed to setup job runner: %w", err)
	}

	jobFactory := job.NewNotificationDispatchJobFactory(app.dispatcher, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(job.NewJobFactoryEventHandler(jobFactory, app.jobRunner, logger))
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register job handler")
	}

	// Notification creation and fan-out
	resolver := notifier.NewStoreSubjectResolver(app.taskStore, app.commentStore, app.projectStore)
	app.creator = notifier.NewCreator(app.notificationStore, resolver, app.eventEmitter, logger)
	app.commentNotifier = notifier.NewCommentNotifier(app.creator, app.userStore, logger)
	app.taskNotifier = notifier.NewTaskNotifier(app.creator, logger)

	// SSE streaming
	app.streamEmitter = stream.NewEmitter(app.notificationStore, app.userStore, cfg.Stream, logger)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// setupJobRunner initializes and starts the background job processor.
func setupJobRunner(app *application, jobStore job.JobStore) (*job.JobRunner, error) {
	runnerConfig := job.DefaultJobRunnerConfig()
	runnerConfig.WorkerCount = app.config.Task.WorkerCount
	runnerConfig.QueueSize = app.config.Task.QueueSize

	runner := job.NewJobRunner(jobStore, runnerConfig, app.logger)
	if err := runner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start job runner: %w", err)
	}
	return runner, nil
}

// notificationDispatchExecutor adapts the webhook dispatcher to the job
// store's executor registry so dispatch jobs recovered from the database can
// be re-executed from their serialized payload.
func notificationDispatchExecutor(dispatcher *webhook.HTTPDispatcher) postgres.JobExecutor {
	return func(ctx context.Context, payload []byte) error {
		notificationID, err := job.ParseDispatchPayload(payload)
		if err != nil {
			return fmt.Errorf("invalid dispatch payload: %w", err)
		}
		_, err = dispatcher.Dispatch(ctx, notificationID)
		return err
	}
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.jobRunner != nil {
		app.jobRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
