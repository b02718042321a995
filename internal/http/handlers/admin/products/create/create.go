// Package create реализует HTTP-обработчик создания товара.
//
// Форма multipart: title, description, price, is_active, cover (изображение) и ebook (.pdf/.epub, обязательно).
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/products/productform"
	"github.com/magabrotheeeer/ebook-store/internal/http/response"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/services/catalog"
)

// Service описывает создание товара.
type Service interface {
	Create(ctx context.Context, form catalog.ProductForm) (*models.Product, error)
}

// Handler обрабатывает создание товара.
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
// @Summary Создать товар
// @Tags Admin
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param title formData string true "Название"
// @Param description formData string false "Описание"
// @Param price formData int true "Цена в батах"
// @Param is_active formData bool false "Товар в продаже"
// @Param cover formData file false "Обложка"
// @Param ebook formData file true "Файл книги .pdf или .epub"
// @Success 201 {object} response.Response "Товар создан"
// @Failure 400 {object} response.ErrorResponse "Некорректная форма"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации или неверный файл"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/products [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.products.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	form, err := productform.Decode(w, r, h.validate)
	if err != nil {
		productform.RenderDecodeError(w, r, log, err)
		return
	}

	product, err := h.service.Create(r.Context(), form)
	if err != nil {
		productform.RenderServiceError(w, r, log, err)
		return
	}

	log.Info("product created", slog.String("product_id", product.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"product": product,
	}))
}
