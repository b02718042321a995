// Package download выдаёт временную ссылку на файл купленной книги.
package download

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
	"github.com/magabrotheeeer/ebook-store/internal/services/library"
)

// MsgNotOwned - книга не куплена.
const MsgNotOwned = "คุณยังไม่ได้ซื้อหนังสือเล่มนี้"

// Service описывает выдачу ссылки.
type Service interface {
	DownloadURL(ctx context.Context, userID, productID string) (*library.Download, error)
}

// Handler обрабатывает скачивание.
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
// @Summary Ссылка на скачивание книги
// @Description Подписанная ссылка на файл, действует один час. Только для купленных книг.
// @Tags Library
// @Produce  json
// @Security BearerAuth
// @Param productId path string true "ID товара"
// @Success 200 {object} response.Response "Ссылка"
// @Failure 403 {object} response.ErrorResponse "Книга не куплена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /library/{productId}/download [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.library.download"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	productID := chi.URLParam(r, "productId")
	if _, err := uuid.Parse(productID); err != nil {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(MsgNotOwned))
		return
	}

	d, err := h.service.DownloadURL(r.Context(), middlewarectx.UserIDFrom(r.Context()), productID)
	if err != nil {
		if errors.Is(err, library.ErrForbidden) {
			log.Warn("download of not owned product", slog.String("product_id", productID))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error(MsgNotOwned))
			return
		}
		log.Error("failed to sign download url", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(d))
}
