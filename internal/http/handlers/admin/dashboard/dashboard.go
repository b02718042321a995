// Package dashboard отдаёт счётчики главной страницы админки.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ebook-store/internal/http/response"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/models"
)

// Service описывает подсчёт статистики.
type Service interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

// Handler обрабатывает главную страницу админки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Статистика магазина
// @Description Ожидающие проверки платежи, заказы, товары и пользователи.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Счётчики"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.dashboard"

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.log.Error("failed to count stats",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(stats))
}
