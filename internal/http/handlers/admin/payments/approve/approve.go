// Package approve подтверждает оплату по уведомлению.
//
// Заголовок Idempotency-Key необязателен: повтор с тем же ключом возвращает первый результат.
// Повторное подтверждение уже подтверждённого уведомления тоже безопасно (replayed=true).
package approve

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
	"github.com/magabrotheeeer/ebook-store/internal/services/review"
)

// IdempotencyHeader - заголовок с ключом идемпотентности.
const IdempotencyHeader = "Idempotency-Key"

// Тексты ошибок для администратора.
const (
	MsgNotFound        = "ไม่พบรายการแจ้งชำระเงินนี้"
	MsgAlreadyReviewed = "รายการนี้ถูกตรวจสอบไปแล้ว"
	MsgInvalidOrder    = "สถานะคำสั่งซื้อไม่สามารถอนุมัติได้"
)

// Service описывает подтверждение оплаты.
type Service interface {
	Approve(ctx context.Context, d review.Decision) (*models.ReviewResult, error)
}

// Handler обрабатывает подтверждение.
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
// @Summary Подтвердить оплату
// @Description Переводит заказ в paid и выдаёт право на скачивание в одной транзакции.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID уведомления"
// @Param Idempotency-Key header string false "Ключ идемпотентности"
// @Success 200 {object} response.Response "Оплата подтверждена"
// @Failure 404 {object} response.ErrorResponse "Уведомление не найдено"
// @Failure 409 {object} response.ErrorResponse "Уведомление уже отклонено"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/payments/{id}/approve [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.payments.approve"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(MsgNotFound))
		return
	}

	res, err := h.service.Approve(r.Context(), review.Decision{
		NotificationID: id,
		AdminID:        middlewarectx.UserIDFrom(r.Context()),
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	})
	if err != nil {
		RenderError(w, r, log, err)
		return
	}

	log.Info("payment approved", slog.String("notification_id", id), slog.Bool("replayed", res.Replayed))
	render.JSON(w, r, response.StatusOKWithData(res))
}

// RenderError переводит ошибку проверки оплаты в HTTP-ответ.
func RenderError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, review.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(MsgNotFound))
	case errors.Is(err, review.ErrAlreadyReviewed):
		log.Info("payment already reviewed", sl.Err(err))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error(MsgAlreadyReviewed))
	case errors.Is(err, review.ErrInvalidTransition):
		log.Warn("order status does not allow review", sl.Err(err))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error(MsgInvalidOrder))
	default:
		log.Error("failed to review payment", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
	}
}
