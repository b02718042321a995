// Package read отдаёт товар для формы редактирования в админке.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/products/productform"
	"github.com/magabrotheeeer/ebook-store/internal/http/response"
	"github.com/magabrotheeeer/ebook-store/internal/models"
)

// Service описывает чтение товара.
type Service interface {
	Get(ctx context.Context, id string) (*models.Product, error)
}

// Handler обрабатывает чтение товара.
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
// @Summary Товар для редактирования
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Success 200 {object} response.Response "Товар"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/products/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.products.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(productform.MsgNotFound))
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		productform.RenderServiceError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"product":   product,
		"file_path": product.FilePath,
	}))
}
