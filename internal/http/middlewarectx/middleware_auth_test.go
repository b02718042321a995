package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/ebook-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebook-store/internal/lib/jwt"
)

// Mock for auth service
type AuthMock struct {
	mock.Mock
}

func (m *AuthMock) ValidateToken(token string) (*jwt.CustomClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*jwt.CustomClaims)
	return claims, args.Error(1)
}

func (m *AuthMock) IsAdmin(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var cookieCfg = middlewarectx.CookieConfig{Name: "session"}

func TestSession(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		cookie     string
		token      string
		claims     *jwt.CustomClaims
		err        error
		wantUserID string
	}{
		{
			name:       "без токена - анонимно",
			wantUserID: "",
		},
		{
			name:       "bearer токен",
			authHeader: "Bearer validtoken",
			token:      "validtoken",
			claims:     &jwt.CustomClaims{UserID: "user-1", Email: "a@example.com"},
			wantUserID: "user-1",
		},
		{
			name:       "cookie",
			cookie:     "cookietoken",
			token:      "cookietoken",
			claims:     &jwt.CustomClaims{UserID: "user-2", Email: "b@example.com"},
			wantUserID: "user-2",
		},
		{
			name:       "просроченный токен - анонимно",
			authHeader: "Bearer expired",
			token:      "expired",
			err:        errors.New("token is expired"),
			wantUserID: "",
		},
		{
			name:       "чужая схема авторизации игнорируется",
			authHeader: "Basic abc",
			wantUserID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthMock)
			if tt.token != "" {
				authMock.On("ValidateToken", tt.token).Return(tt.claims, tt.err).Once()
			}

			var gotUserID string
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				gotUserID = middlewarectx.UserIDFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/products", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			middlewarectx.Session(authMock, cookieCfg, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.True(t, called)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantUserID, gotUserID)
			authMock.AssertExpectations(t)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middlewarectx.RequireAuth(newNoopLogger())(next)

	t.Run("анонимный запрос уходит на вход", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/abc/pay", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Equal(t, "/login?redirect=%2Forders%2Fabc%2Fpay", rec.Header().Get("Location"))
	})

	t.Run("вошедший пользователь проходит", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), "user-1", "a@example.com"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name         string
		userID       string
		isAdmin      bool
		err          error
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "анонимный - на вход",
			wantStatus:   http.StatusTemporaryRedirect,
			wantLocation: "/login?redirect=%2Fadmin%2Fpayments",
		},
		{
			name:         "покупатель - на главную",
			userID:       "user-1",
			isAdmin:      false,
			wantStatus:   http.StatusTemporaryRedirect,
			wantLocation: "/",
		},
		{
			name:       "администратор проходит",
			userID:     "admin-1",
			isAdmin:    true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "ошибка базы",
			userID:     "user-1",
			err:        errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthMock)
			if tt.userID != "" {
				authMock.On("IsAdmin", mock.Anything, tt.userID).Return(tt.isAdmin, tt.err).Once()
			}
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin/payments", nil)
			if tt.userID != "" {
				req = req.WithContext(middlewarectx.WithUser(req.Context(), tt.userID, "x@example.com"))
			}
			rec := httptest.NewRecorder()
			middlewarectx.RequireAdmin(authMock, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			}
			authMock.AssertExpectations(t)
		})
	}
}

func TestGuestOnly(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middlewarectx.GuestOnly()(next)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = req.WithContext(middlewarectx.WithUser(req.Context(), "user-1", "a@example.com"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestSafeRedirect(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/products/1":          "/products/1",
		"https://evil.example": "/",
		"//evil.example/path":  "/",
		"/\\evil.example":      "/",
		"/orders/1/pay?x=1":    "/orders/1/pay?x=1",
		"javascript:alert(1)":  "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, middlewarectx.SafeRedirect(in), in)
	}
}

func TestSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	expires := time.Now().Add(time.Hour)
	middlewarectx.SetSessionCookie(rec, cookieCfg, "tok", expires)

	cookies := rec.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, "session", cookies[0].Name)
		assert.Equal(t, "tok", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	}

	rec = httptest.NewRecorder()
	middlewarectx.ClearSessionCookie(rec, cookieCfg)
	cookies = rec.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Empty(t, cookies[0].Value)
		assert.Equal(t, -1, cookies[0].MaxAge)
	}
}
