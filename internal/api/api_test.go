package api

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rgardner/taskflow-api/internal/api/shared"
	"github.com/rgardner/taskflow-api/internal/domain"
	"github.com/rgardner/taskflow-api/internal/service/auth"
	"github.com/rgardner/taskflow-api/internal/store"
)

// Shared test fixtures and fakes for the handler tests.

// withUser places an authenticated user ID in the request context, standing
// in for the auth middleware.
func withUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), shared.UserIDContextKey, userID))
}

// withPathParam attaches a chi route parameter to the request.
func withPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// passthroughTx satisfies TxRunner without a database. The nil tx is safe
// because the fakes' WithTx ignores it and returns the fake itself.
func passthroughTx(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

// countingTxRunner records how many transactions a handler opened.
type countingTxRunner struct {
	mu    sync.Mutex
	calls int
}

func (c *countingTxRunner) run(ctx context.Context, fn store.TxFn) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return fn(ctx, nil)
}

// fakeUserStore serves and records users
type fakeUserStore struct {
	store.UserStore

	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]*domain.User
	created []*domain.User
	err     error
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	s := &fakeUserStore{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
	for _, u := range users {
		s.byID[u.ID] = u
		s.byEmail[u.Email] = u
	}
	return s
}

func (s *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, exists := s.byEmail[user.Email]; exists {
		return store.ErrEmailExists
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user
	s.created = append(s.created, user)
	return nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

// fakeNotificationStore backs the notification handler tests
type fakeNotificationStore struct {
	store.NotificationStore

	mu         sync.Mutex
	byID       map[uuid.UUID]*domain.Notification
	lastFilter store.NotificationFilter
	err        error
}

func newFakeNotificationStore(notifications ...*domain.Notification) *fakeNotificationStore {
	s := &fakeNotificationStore{byID: make(map[uuid.UUID]*domain.Notification)}
	for _, n := range notifications {
		s.byID[n.ID] = n
	}
	return s
}

func (s *fakeNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore { return s }

func (s *fakeNotificationStore) getScoped(recipientID, id uuid.UUID) (*domain.Notification, error) {
	n, ok := s.byID[id]
	if !ok || n.RecipientID != recipientID {
		return nil, store.ErrNotificationNotFound
	}
	return n, nil
}

func (s *fakeNotificationStore) GetForRecipient(
	ctx context.Context,
	recipientID, id uuid.UUID,
) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getScoped(recipientID, id)
}

func (s *fakeNotificationStore) ListByRecipient(
	ctx context.Context,
	recipientID uuid.UUID,
	filter store.NotificationFilter,
) ([]*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	var result []*domain.Notification
	for _, n := range s.byID {
		if n.RecipientID != recipientID {
			continue
		}
		if filter.UnreadOnly && n.IsRead() {
			continue
		}
		if filter.EventKind != "" && n.EventKind != filter.EventKind {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

func (s *fakeNotificationStore) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	count := 0
	for _, n := range s.byID {
		if n.RecipientID == recipientID && !n.IsRead() {
			count++
		}
	}
	return count, nil
}

func (s *fakeNotificationStore) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.getScoped(recipientID, id)
	if err != nil {
		return err
	}
	n.MarkRead()
	return nil
}

func (s *fakeNotificationStore) MarkUnread(ctx context.Context, recipientID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.getScoped(recipientID, id)
	if err != nil {
		return err
	}
	n.MarkUnread()
	return nil
}

func (s *fakeNotificationStore) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := 0
	for _, n := range s.byID {
		if n.RecipientID == recipientID && !n.IsRead() {
			n.MarkRead()
			updated++
		}
	}
	return updated, nil
}

func (s *fakeNotificationStore) Delete(ctx context.Context, recipientID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.getScoped(recipientID, id); err != nil {
		return err
	}
	delete(s.byID, id)
	return nil
}

func (s *fakeNotificationStore) ListUnreadSince(
	ctx context.Context,
	recipientID uuid.UUID,
	since time.Time,
) ([]*domain.Notification, error) {
	return nil, nil
}

// fakeWebhookStore backs the webhook handler tests
type fakeWebhookStore struct {
	store.WebhookStore

	mu   sync.Mutex
	subs map[uuid.UUID]*domain.WebhookSubscription
	err  error
}

func newFakeWebhookStore(subs ...*domain.WebhookSubscription) *fakeWebhookStore {
	s := &fakeWebhookStore{subs: make(map[uuid.UUID]*domain.WebhookSubscription)}
	for _, sub := range subs {
		s.subs[sub.ID] = sub
	}
	return s
}

func (s *fakeWebhookStore) WithTx(tx *sql.Tx) store.WebhookStore { return s }

func (s *fakeWebhookStore) getScoped(userID, id uuid.UUID) (*domain.WebhookSubscription, error) {
	sub, ok := s.subs[id]
	if !ok || sub.UserID != userID {
		return nil, store.ErrWebhookNotFound
	}
	return sub, nil
}

func (s *fakeWebhookStore) Create(ctx context.Context, sub *domain.WebhookSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.subs[sub.ID] = sub
	return nil
}

func (s *fakeWebhookStore) GetByID(
	ctx context.Context,
	userID, id uuid.UUID,
) (*domain.WebhookSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, err := s.getScoped(userID, id)
	if err != nil {
		return nil, err
	}
	// Reads omit the secret
	copied := *sub
	copied.Secret = ""
	return &copied, nil
}

func (s *fakeWebhookStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.WebhookSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*domain.WebhookSubscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			copied := *sub
			copied.Secret = ""
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *fakeWebhookStore) Update(
	ctx context.Context,
	userID, id uuid.UUID,
	update store.WebhookUpdate,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, err := s.getScoped(userID, id)
	if err != nil {
		return err
	}
	sub.Name = update.Name
	sub.URL = update.URL
	sub.EventFilter = update.EventFilter
	return nil
}

func (s *fakeWebhookStore) SetActive(ctx context.Context, userID, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, err := s.getScoped(userID, id)
	if err != nil {
		return err
	}
	sub.Active = active
	if active {
		sub.FailureCount = 0
	}
	return nil
}

func (s *fakeWebhookStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.getScoped(userID, id); err != nil {
		return err
	}
	delete(s.subs, id)
	return nil
}

// fakeTaskStore backs the task handler tests
type fakeTaskStore struct {
	store.TaskStore

	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
	err   error
}

func newFakeTaskStore(tasks ...*domain.Task) *fakeTaskStore {
	s := &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
	for _, task := range tasks {
		s.tasks[task.ID] = task
	}
	return s
}

func (s *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return s }

func (s *fakeTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func (s *fakeTaskStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Status = status
	return nil
}

func (s *fakeTaskStore) Assign(ctx context.Context, id uuid.UUID, assigneeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.AssigneeID = &assigneeID
	return nil
}

// fakeCommentStore records created comments
type fakeCommentStore struct {
	store.CommentStore

	mu       sync.Mutex
	comments []*domain.Comment
	err      error
}

func (s *fakeCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.comments = append(s.comments, comment)
	return nil
}

// stubJWTService issues fixed tokens and canned validation results
type stubJWTService struct {
	accessToken  string
	refreshToken string
	generateErr  error
	claims       *auth.Claims
	validateErr  error
}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.accessToken, s.generateErr
}

func (s *stubJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	return s.claims, s.validateErr
}

func (s *stubJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.refreshToken, s.generateErr
}

func (s *stubJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	return s.claims, s.validateErr
}

// stubHasher makes hashing deterministic and visible in assertions
type stubHasher struct{ err error }

func (h *stubHasher) Hash(password string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + password, nil
}

// stubVerifier accepts passwords hashed by stubHasher
type stubVerifier struct{}

func (v *stubVerifier) Compare(hashedPassword, password string) error {
	if hashedPassword == "hashed:"+password {
		return nil
	}
	return io.EOF
}

// fakeCommentNotifier records fan-out calls
type fakeCommentNotifier struct {
	count  int
	err    error
	called bool
}

func (n *fakeCommentNotifier) NotifyCommentCreated(
	ctx context.Context,
	comment *domain.Comment,
	task *domain.Task,
	actor *domain.User,
) (int, error) {
	n.called = true
	return n.count, n.err
}

// fakeTaskNotifier records task fan-out calls
type fakeTaskNotifier struct {
	statusCount  int
	statusErr    error
	oldStatus    domain.TaskStatus
	newStatus    domain.TaskStatus
	assigned     *domain.Notification
	assignErr    error
	statusCalled bool
	assignCalled bool
}

func (n *fakeTaskNotifier) NotifyTaskStatusChanged(
	ctx context.Context,
	task *domain.Task,
	oldStatus, newStatus domain.TaskStatus,
	actor *domain.User,
) (int, error) {
	n.statusCalled = true
	n.oldStatus = oldStatus
	n.newStatus = newStatus
	return n.statusCount, n.statusErr
}

func (n *fakeTaskNotifier) NotifyTaskAssigned(
	ctx context.Context,
	task *domain.Task,
	assignee, actor *domain.User,
) (*domain.Notification, error) {
	n.assignCalled = true
	return n.assigned, n.assignErr
}
