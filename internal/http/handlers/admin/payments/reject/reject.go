// Package reject отклоняет оплату с обязательной причиной.
package reject

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/payments/approve"
	"github.com/magabrotheeeer/ebook-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebook-store/internal/http/response"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/services/review"
)

// MsgReasonRequired - причина отказа не указана.
const MsgReasonRequired = "กรุณาระบุเหตุผลในการปฏิเสธ"

// Request - тело запроса.
type Request struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// Service описывает отклонение оплаты.
type Service interface {
	Reject(ctx context.Context, d review.Decision) (*models.ReviewResult, error)
}

// Handler обрабатывает отклонение.
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
// @Summary Отклонить оплату
// @Description Отклоняет ожидающее уведомление. Причина обязательна и видна покупателю.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID уведомления"
// @Param Idempotency-Key header string false "Ключ идемпотентности"
// @Param request body Request true "Причина отказа"
// @Success 200 {object} response.Response "Оплата отклонена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Уведомление не найдено"
// @Failure 409 {object} response.ErrorResponse "Уведомление уже проверено"
// @Failure 422 {object} response.ErrorResponse "Причина не указана"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/payments/{id}/reject [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.payments.reject"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(approve.MsgNotFound))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidRequest))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(MsgReasonRequired))
		return
	}

	res, err := h.service.Reject(r.Context(), review.Decision{
		NotificationID: id,
		AdminID:        middlewarectx.UserIDFrom(r.Context()),
		IdempotencyKey: r.Header.Get(approve.IdempotencyHeader),
		Reason:         req.Reason,
	})
	if err != nil {
		if errors.Is(err, review.ErrEmptyReason) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(MsgReasonRequired))
			return
		}
		approve.RenderError(w, r, log, err)
		return
	}

	log.Info("payment rejected", slog.String("notification_id", id))
	render.JSON(w, r, response.StatusOKWithData(res))
}
