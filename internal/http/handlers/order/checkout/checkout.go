// Package checkout отдаёт данные страницы оплаты заказа.
//
// Оплаченный заказ перенаправляется в библиотеку (303).
// Чужой заказ неотличим от несуществующего.
package checkout

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
	checkoutservice "github.com/magabrotheeeer/ebook-store/internal/services/checkout"
)

// LibraryPath - куда отправляется покупатель с оплаченным заказом.
const LibraryPath = "/library"

// MsgOrderNotFound - заказ не найден.
const MsgOrderNotFound = "ไม่พบคำสั่งซื้อนี้"

// Service описывает чтение страницы оплаты.
type Service interface {
	Checkout(ctx context.Context, userID, orderID string) (*models.CheckoutView, error)
}

// Handler обрабатывает страницу оплаты.
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
// @Summary Страница оплаты заказа
// @Description Заказ, товар и причина последнего отказа. Оплаченный заказ перенаправляется в /library.
// @Tags Orders
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 200 {object} response.Response "Данные оплаты"
// @Success 303 "Заказ уже оплачен"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /orders/{id}/pay [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.checkout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	orderID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(orderID); err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(MsgOrderNotFound))
		return
	}

	view, err := h.service.Checkout(r.Context(), middlewarectx.UserIDFrom(r.Context()), orderID)
	if err != nil {
		if errors.Is(err, checkoutservice.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(MsgOrderNotFound))
			return
		}
		log.Error("failed to load checkout", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	if view.Order.Status == models.OrderPaid {
		http.Redirect(w, r, LibraryPath, http.StatusSeeOther)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(view))
}
