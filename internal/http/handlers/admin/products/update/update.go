// Package update реализует HTTP-обработчик изменения товара.
// Файлы необязательны: без них у товара остаются прежние книга и обложка.
package update

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/products/productform"
	"github.com/magabrotheeeer/ebook-store/internal/http/response"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/services/catalog"
)

// Service описывает изменение товара.
type Service interface {
	Update(ctx context.Context, id string, form catalog.ProductForm) (*models.Product, error)
}

// Handler обрабатывает изменение товара.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить товар
// @Tags Admin
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Param title formData string true "Название"
// @Param description formData string false "Описание"
// @Param price formData int true "Цена в батах"
// @Param is_active formData bool false "Товар в продаже"
// @Param cover formData file false "Новая обложка"
// @Param ebook formData file false "Новый файл книги"
// @Success 200 {object} response.Response "Товар изменён"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации или неверный файл"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/products/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.products.update"

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

	form, err := productform.Decode(w, r, h.validate)
	if err != nil {
		productform.RenderDecodeError(w, r, log, err)
		return
	}

	product, err := h.service.Update(r.Context(), id, form)
	if err != nil {
		productform.RenderServiceError(w, r, log, err)
		return
	}

	log.Info("product updated", slog.String("product_id", product.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"product": product,
	}))
}
