// Package list отдаёт уведомления об оплате для проверки администратором.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ebook-store/internal/http/response"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/models"
)

// Filter - параметры запроса.
type Filter struct {
	Status string `validate:"omitempty,oneof=pending verified rejected"`
}

// Service описывает выборку уведомлений.
type Service interface {
	List(ctx context.Context, status models.PaymentStatus) ([]*models.PaymentReview, error)
}

// Handler обрабатывает список платежей.
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
// @Summary Платежи на проверку
// @Description Уведомления с заказом, товаром, покупателем и подписанной ссылкой на слип, новые первыми.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param status query string false "pending, verified или rejected"
// @Success 200 {object} response.Response "Уведомления"
// @Failure 422 {object} response.ErrorResponse "Неизвестный статус"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.payments.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter := Filter{Status: r.URL.Query().Get("status")}
	if err := h.validate.Struct(filter); err != nil {
		log.Info("invalid status filter", slog.String("status", filter.Status))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	reviews, err := h.service.List(r.Context(), models.PaymentStatus(filter.Status))
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}
	if reviews == nil {
		reviews = []*models.PaymentReview{}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payments": reviews,
	}))
}
