// Package middlewarectx содержит HTTP middleware сессии и разграничения доступа.
//
// Session читает JWT из cookie или заголовка Authorization и кладёт в контекст
// ID и email пользователя. Отсутствующий или просроченный токен не ошибка:
// запрос продолжается как анонимный. Решение о доступе принимают
// RequireAuth, RequireAdmin и GuestOnly.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ebook-store/internal/http/response"
	"github.com/magabrotheeeer/ebook-store/internal/lib/jwt"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID - ключ для ID пользователя в контексте
	UserID Key = "user_id"
	// Email - ключ для email пользователя в контексте
	Email Key = "email"
)

// LoginPath - страница входа, куда отправляются анонимные запросы.
const LoginPath = "/login"

// TokenValidator проверяет сессионный токен.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.CustomClaims, error)
}

// AdminChecker перечитывает роль пользователя из базы.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// CookieConfig - параметры сессионной cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// WithUser возвращает контекст с данными пользователя.
func WithUser(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, UserID, userID)
	return context.WithValue(ctx, Email, email)
}

// UserIDFrom возвращает ID пользователя из контекста. Пустая строка - анонимный запрос.
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(UserID).(string)
	return id
}

// EmailFrom возвращает email пользователя из контекста.
func EmailFrom(ctx context.Context) string {
	email, _ := ctx.Value(Email).(string)
	return email
}

// Session возвращает middleware, который распознаёт пользователя по токену.
func Session(validator TokenValidator, cookie CookieConfig, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Session"

			token := tokenFromRequest(r, cookie.Name)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				log.Debug("invalid or expired token, continuing anonymously",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID, claims.Email)))
		})
	}
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuth пропускает только вошедших пользователей, остальных отправляет на страницу входа.
func RequireAuth(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFrom(r.Context()) == "" {
				log.Info("anonymous request redirected to login",
					slog.String("op", "middlewarectx.RequireAuth"),
					slog.String("path", r.URL.Path),
				)
				RedirectToLogin(w, r, r.URL.RequestURI())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin пропускает только администраторов. Роль читается из базы на каждый запрос.
func RequireAdmin(checker AdminChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireAdmin"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			userID := UserIDFrom(r.Context())
			if userID == "" {
				RedirectToLogin(w, r, r.URL.RequestURI())
				return
			}

			isAdmin, err := checker.IsAdmin(r.Context(), userID)
			if err != nil {
				log.Error("failed to check role", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error(response.MsgInternal))
				return
			}
			if !isAdmin {
				log.Warn("non-admin redirected", slog.String("user_id", userID))
				http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GuestOnly отправляет вошедших пользователей на главную. Используется для входа и регистрации.
func GuestOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFrom(r.Context()) != "" {
				http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectToLogin отправляет на страницу входа с адресом возврата.
func RedirectToLogin(w http.ResponseWriter, r *http.Request, back string) {
	http.Redirect(w, r, LoginPath+"?redirect="+url.QueryEscape(back), http.StatusTemporaryRedirect)
}

// SafeRedirect оставляет только локальные пути вида "/...". Всё остальное заменяется на "/".
func SafeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}

// SetSessionCookie записывает токен в сессионную cookie.
func SetSessionCookie(w http.ResponseWriter, cfg CookieConfig, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie удаляет сессионную cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
