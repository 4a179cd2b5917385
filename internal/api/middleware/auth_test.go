package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgardner/taskflow-api/internal/service/auth"
)

// mockJWTService implements auth.JWTService with canned responses
type mockJWTService struct {
	claims *auth.Claims
	err    error
}

func (m *mockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "token", nil
}

func (m *mockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	return m.claims, m.err
}

func (m *mockJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "refresh", nil
}

func (m *mockJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	return m.claims, m.err
}

func okHandler(t *testing.T, wantUserID uuid.UUID, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		userID, ok := GetUserID(r)
		require.True(t, ok)
		assert.Equal(t, wantUserID, userID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name       string
		header     string
		jwt        *mockJWTService
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "valid bearer token",
			header:     "Bearer good-token",
			jwt:        &mockJWTService{claims: &auth.Claims{UserID: userID}},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "missing header",
			header:     "",
			jwt:        &mockJWTService{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			header:     "NotBearer token",
			jwt:        &mockJWTService{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			header:     "Bearer expired",
			jwt:        &mockJWTService{err: auth.ErrExpiredToken},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			header:     "Bearer bad",
			jwt:        &mockJWTService{err: auth.ErrInvalidToken},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unexpected validation error",
			header:     "Bearer odd",
			jwt:        &mockJWTService{err: errors.New("connection reset")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mw := NewAuthMiddleware(tt.jwt)
			handler := mw.Authenticate(okHandler(t, userID, &called))

			req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestAuthenticateQueryToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("valid query token", func(t *testing.T) {
		called := false
		mw := NewAuthMiddleware(&mockJWTService{claims: &auth.Claims{UserID: userID}})
		handler := mw.AuthenticateQueryToken(okHandler(t, userID, &called))

		req := httptest.NewRequest(http.MethodGet, "/api/notifications/stream?token=good", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, called)
	})

	t.Run("missing token parameter", func(t *testing.T) {
		called := false
		mw := NewAuthMiddleware(&mockJWTService{})
		handler := mw.AuthenticateQueryToken(okHandler(t, userID, &called))

		req := httptest.NewRequest(http.MethodGet, "/api/notifications/stream", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("invalid token rejected before streaming", func(t *testing.T) {
		called := false
		mw := NewAuthMiddleware(&mockJWTService{err: auth.ErrInvalidToken})
		handler := mw.AuthenticateQueryToken(okHandler(t, userID, &called))

		req := httptest.NewRequest(http.MethodGet, "/api/notifications/stream?token=bad", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})
}
