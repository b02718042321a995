// Package detail отдаёт карточку товара и признак того, что книга уже куплена.
//
// По флагу owned клиент решает, показывать ли кнопку покупки или сообщение "คุณมีหนังสือเล่มนี้แล้ว".
package detail

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
	"github.com/magabrotheeeer/ebook-store/internal/services/catalog"
)

// MsgProductNotFound - товар не найден или снят с продажи.
const MsgProductNotFound = "ไม่พบสินค้านี้"

// Service описывает чтение карточки товара.
type Service interface {
	Detail(ctx context.Context, productID, userID string) (*catalog.ProductDetail, error)
}

// Handler обрабатывает карточку товара.
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
// @Summary Карточка товара
// @Description Активный товар и флаг owned для вошедшего пользователя.
// @Tags Catalog
// @Produce  json
// @Param id path string true "ID товара"
// @Success 200 {object} response.Response "Товар"
// @Failure 404 {object} response.ErrorResponse "Товар не найден или скрыт"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /products/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.detail"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Info("invalid product id", slog.String("id", id))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(MsgProductNotFound))
		return
	}

	detail, err := h.service.Detail(r.Context(), id, middlewarectx.UserIDFrom(r.Context()))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(MsgProductNotFound))
			return
		}
		log.Error("failed to read product", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(detail))
}
