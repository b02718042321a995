// Package submitslip принимает слип об оплате заказа.
//
// Форма multipart: slip (изображение, обязательно) и note (необязательно).
package submitslip

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
	"github.com/magabrotheeeer/ebook-store/internal/http/upload"
	"github.com/magabrotheeeer/ebook-store/internal/lib/filetype"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/services/checkout"
)

// maxBody - слип плюс запас на поля формы.
const maxBody = filetype.MaxSlipSize + 1<<20

// Тексты ошибок для покупателя.
const (
	MsgSlipRequired   = "กรุณาแนบสลิปการโอนเงิน"
	MsgSlipInvalid    = "ไฟล์สลิปต้องเป็นรูปภาพขนาดไม่เกิน 10 MB"
	MsgOrderPaid      = "คำสั่งซื้อนี้ชำระเงินแล้ว"
	MsgAwaitingReview = "คำสั่งซื้อนี้อยู่ระหว่างการตรวจสอบ ไม่สามารถส่งสลิปได้"
	MsgOrderNotFound  = "ไม่พบคำสั่งซื้อนี้"
)

// Service описывает загрузку слипа.
type Service interface {
	SubmitSlip(ctx context.Context, in checkout.SlipInput) (*models.PaymentNotification, error)
}

// Handler обрабатывает загрузку слипа.
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
// @Summary Загрузить слип об оплате
// @Description Сохраняет слип и переводит заказ в статус submitted.
// @Tags Orders
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Param slip formData file true "Изображение слипа, до 10 MB"
// @Param note formData string false "Комментарий покупателя"
// @Success 201 {object} response.Response "Слип принят"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 409 {object} response.ErrorResponse "Заказ оплачен или ждёт проверки"
// @Failure 422 {object} response.ErrorResponse "Слип не передан или не изображение"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /orders/{id}/pay [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.submitslip"

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

	if err := upload.ParseForm(w, r, maxBody); err != nil {
		log.Info("failed to parse slip form", sl.Err(err))
		if errors.Is(err, upload.ErrTooLarge) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(MsgSlipInvalid))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidRequest))
		return
	}

	slip, err := upload.File(r, "slip", filetype.MaxSlipSize)
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(MsgSlipInvalid))
		return
	case err != nil:
		log.Error("failed to read slip", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidRequest))
		return
	case slip == nil:
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(MsgSlipRequired))
		return
	}

	notification, err := h.service.SubmitSlip(r.Context(), checkout.SlipInput{
		UserID:  middlewarectx.UserIDFrom(r.Context()),
		OrderID: orderID,
		Slip:    slip,
		Note:    r.FormValue("note"),
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(MsgOrderNotFound))
		case errors.Is(err, checkout.ErrAlreadyPaid):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(MsgOrderPaid))
		case errors.Is(err, checkout.ErrInvalidTransition):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(MsgAwaitingReview))
		case errors.Is(err, checkout.ErrInvalidSlip):
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(MsgSlipInvalid))
		default:
			log.Error("failed to submit slip", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.MsgInternal))
		}
		return
	}

	log.Info("slip accepted", slog.String("notification_id", notification.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"notification": notification,
		"message":      "ส่งหลักฐานการชำระเงินเรียบร้อยแล้ว กรุณารอการตรวจสอบ",
	}))
}
