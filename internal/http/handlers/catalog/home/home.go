// Package home отдаёт новинки для главной страницы магазина.
package home

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

// Service описывает выборку новинок каталога.
type Service interface {
	Featured(ctx context.Context) ([]*models.Product, error)
}

// Handler обрабатывает главную страницу.
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
// @Summary Главная страница
// @Description Три новейших активных товара.
// @Tags Catalog
// @Produce  json
// @Success 200 {object} response.Response "Новинки"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router / [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.home"

	products, err := h.service.Featured(r.Context())
	if err != nil {
		h.log.Error("failed to list featured products",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}
	if products == nil {
		products = []*models.Product{}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"products": products,
	}))
}
