// Package login реализует HTTP-обработчик входа покупателя и администратора.
//
// При успехе выставляется сессионная cookie, а токен и профиль возвращаются в теле ответа
// вместе с адресом, куда нужно вернуть пользователя (параметр redirect).
// После серии неудачных попыток email блокируется, и обработчик отвечает 429 с Retry-After.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ebook-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebook-store/internal/http/response"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/services/auth"
)

// Request - структура входных данных для авторизации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log      *slog.Logger // Логгер для записи операций и ошибок
	service  Service      // Сервис аутентификации
	cookie   middlewarectx.CookieConfig
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookie middlewarectx.CookieConfig) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		cookie:   cookie,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход в магазин
// @Description Проверяет email и пароль, выставляет сессионную cookie и возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Param redirect query string false "Куда вернуть пользователя после входа"
// @Success 200 {object} response.Response "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Вход временно заблокирован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidRequest))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var locked *auth.LockedError
		switch {
		case errors.As(err, &locked):
			log.Warn("login locked", slog.Duration("retry_after", locked.RetryAfter))
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(locked.RetryAfter.Seconds()))))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.Error("เข้าสู่ระบบผิดพลาดหลายครั้ง กรุณาลองใหม่ภายหลัง"))
		case errors.Is(err, auth.ErrInvalidCredentials):
			log.Info("invalid credentials")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("อีเมลหรือรหัสผ่านไม่ถูกต้อง"))
		default:
			log.Error("login failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.MsgInternal))
		}
		return
	}

	middlewarectx.SetSessionCookie(w, h.cookie, session.Token, session.ExpiresAt)

	log.Info("login success", slog.String("user_id", session.Profile.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"profile":    session.Profile,
		"redirect":   middlewarectx.SafeRedirect(r.URL.Query().Get("redirect")),
	}))
}
