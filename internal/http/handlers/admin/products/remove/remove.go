// Package remove реализует удаление товара.
// Товар, на который ссылаются заказы, не удаляется: его нужно снять с продажи.
package remove

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
)

// Service описывает удаление товара.
type Service interface {
	Delete(ctx context.Context, id string) error
}

// Handler обрабатывает удаление товара.
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
// @Summary Удалить товар
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Success 200 {object} response.Response "Товар удалён"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Failure 409 {object} response.ErrorResponse "На товар ссылаются заказы"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/products/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.products.remove"

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

	if err := h.service.Delete(r.Context(), id); err != nil {
		productform.RenderServiceError(w, r, log, err)
		return
	}

	log.Info("product deleted", slog.String("product_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted_id": id,
	}))
}
