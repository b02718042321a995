// Package list отдаёт библиотеку покупателя: купленные книги, новые первыми.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ebook-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebook-store/internal/http/response"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/models"
)

// Service описывает выборку библиотеки.
type Service interface {
	List(ctx context.Context, userID string) ([]*models.LibraryItem, error)
}

// Handler обрабатывает библиотеку.
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
// @Summary Моя библиотека
// @Tags Library
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Купленные книги"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /library [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.library.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	items, err := h.service.List(r.Context(), middlewarectx.UserIDFrom(r.Context()))
	if err != nil {
		log.Error("failed to list library", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}
	if items == nil {
		items = []*models.LibraryItem{}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"items": items,
	}))
}
