// Package buy создаёт заказ на книгу.
//
// Анонимный покупатель отправляется на вход с возвратом на карточку товара.
// Успешный ответ содержит адрес страницы оплаты в заголовке Location и в теле.
package buy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/ebook-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebook-store/internal/http/response"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/services/checkout"
)

// Service описывает создание заказа.
type Service interface {
	Buy(ctx context.Context, userID, productID string) (*models.Order, error)
}

// Handler обрабатывает покупку.
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

// PayPath возвращает адрес страницы оплаты заказа.
func PayPath(orderID string) string {
	return "/orders/" + orderID + "/pay"
}

// ServeHTTP godoc
// @Summary Купить книгу
// @Description Создает заказ pending по текущей цене товара. Аноним получает редирект на вход.
// @Tags Orders
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID товара"
// @Success 201 {object} response.Response "Заказ создан"
// @Success 307 "Редирект на /login"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Failure 409 {object} response.ErrorResponse "Книга уже куплена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /products/{id}/buy [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.buy"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	productID := chi.URLParam(r, "id")
	userID := middlewarectx.UserIDFrom(r.Context())
	if userID == "" {
		middlewarectx.RedirectToLogin(w, r, "/products/"+productID)
		return
	}

	if _, err := uuid.Parse(productID); err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("ไม่พบสินค้านี้"))
		return
	}

	order, err := h.service.Buy(r.Context(), userID, productID)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrAlreadyOwned):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("คุณมีหนังสือเล่มนี้แล้ว"))
		case errors.Is(err, checkout.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("ไม่พบสินค้านี้"))
		default:
			log.Error("failed to create order", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.MsgInternal))
		}
		return
	}

	location := PayPath(order.ID)
	w.Header().Set("Location", location)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"order":    order,
		"location": location,
	}))
}
