// Package logout реализует выход из магазина: сессионная cookie удаляется.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ebook-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebook-store/internal/http/response"
)

// Handler обрабатывает выход пользователя.
type Handler struct {
	log    *slog.Logger
	cookie middlewarectx.CookieConfig
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, cookie middlewarectx.CookieConfig) *Handler {
	return &Handler{
		log:    log,
		cookie: cookie,
	}
}

// ServeHTTP godoc
// @Summary Выход
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Cookie удалена"
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	middlewarectx.ClearSessionCookie(w, h.cookie)
	h.log.Info("logged out",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("user_id", middlewarectx.UserIDFrom(r.Context())),
	)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"redirect": "/",
	}))
}
