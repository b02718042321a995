// Package productform разбирает multipart-форму товара в админке
// и переводит ошибки каталога в HTTP-ответы.
package productform

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ebook-store/internal/http/response"
	"github.com/magabrotheeeer/ebook-store/internal/http/upload"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/services/catalog"
)

// Ограничения на размер файлов товара.
const (
	MaxEbookSize = 200 << 20
	MaxCoverSize = 10 << 20
	maxBody      = MaxEbookSize + MaxCoverSize + 1<<20
)

// Тексты ошибок для администратора.
const (
	MsgInvalidPrice   = "ราคาต้องเป็นจำนวนเต็มไม่ติดลบ"
	MsgEbookRequired  = "กรุณาอัปโหลดไฟล์หนังสือ (.pdf หรือ .epub)"
	MsgInvalidFile    = "ไฟล์ไม่ถูกต้อง หนังสือต้องเป็น .pdf หรือ .epub และปกต้องเป็นรูปภาพ"
	MsgFileTooLarge   = "ไฟล์มีขนาดใหญ่เกินไป"
	MsgInvalidProduct = "กรุณากรอกชื่อสินค้าและราคาให้ถูกต้อง"
	MsgNotFound       = "ไม่พบสินค้านี้"
	MsgProductInUse   = "ไม่สามารถลบสินค้าที่มีคำสั่งซื้อได้ กรุณาปิดการขายแทน"
)

// Fields - текстовые поля формы товара.
type Fields struct {
	Title       string `validate:"required,max=255"`
	Description string `validate:"max=20000"`
	Price       int64  `validate:"gte=0"`
	IsActive    bool
}

// Error - ошибка разбора формы вместе с ответом клиенту.
type Error struct {
	Status int
	Body   any
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("productform: %d: %v", e.Status, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalid(msg string, err error) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Body: response.Error(msg), Err: err}
}

// Decode разбирает форму: title, description, price, is_active и файлы cover и ebook.
// Файлы необязательны, проверку обязательности книги делает каталог.
func Decode(w http.ResponseWriter, r *http.Request, v *validator.Validate) (catalog.ProductForm, error) {
	if err := upload.ParseForm(w, r, maxBody); err != nil {
		if errors.Is(err, upload.ErrTooLarge) {
			return catalog.ProductForm{}, invalid(MsgFileTooLarge, err)
		}
		return catalog.ProductForm{}, &Error{Status: http.StatusBadRequest, Body: response.Error(response.MsgInvalidRequest), Err: err}
	}

	price, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("price")), 10, 64)
	if err != nil {
		return catalog.ProductForm{}, invalid(MsgInvalidPrice, err)
	}
	fields := Fields{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Price:       price,
		IsActive:    parseBool(r.FormValue("is_active")),
	}
	if err := v.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return catalog.ProductForm{}, &Error{Status: http.StatusUnprocessableEntity, Body: response.ValidationError(verrs), Err: err}
		}
		return catalog.ProductForm{}, invalid(MsgInvalidProduct, err)
	}

	form := catalog.ProductForm{
		Title:       fields.Title,
		Description: fields.Description,
		Price:       fields.Price,
		IsActive:    fields.IsActive,
	}
	if form.Ebook, err = readUpload(r, "ebook", MaxEbookSize); err != nil {
		return catalog.ProductForm{}, err
	}
	if form.Cover, err = readUpload(r, "cover", MaxCoverSize); err != nil {
		return catalog.ProductForm{}, err
	}
	return form, nil
}

func readUpload(r *http.Request, field string, limit int64) (*catalog.Upload, error) {
	data, err := upload.File(r, field, limit)
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		return nil, invalid(MsgFileTooLarge, err)
	case err != nil:
		return nil, &Error{Status: http.StatusBadRequest, Body: response.Error(response.MsgInvalidRequest), Err: err}
	case data == nil:
		return nil, nil
	}
	return &catalog.Upload{Data: data}, nil
}

// parseBool понимает значения чекбокса HTML-формы.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// RenderDecodeError пишет ответ для ошибки Decode.
func RenderDecodeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var fe *Error
	if errors.As(err, &fe) {
		log.Info("invalid product form", sl.Err(err))
		render.Status(r, fe.Status)
		render.JSON(w, r, fe.Body)
		return
	}
	log.Error("failed to decode product form", sl.Err(err))
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, response.Error(response.MsgInternal))
}

// RenderServiceError переводит ошибку каталога в HTTP-ответ.
func RenderServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, msg := http.StatusInternalServerError, response.MsgInternal
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		status, msg = http.StatusNotFound, MsgNotFound
	case errors.Is(err, catalog.ErrProductInUse):
		status, msg = http.StatusConflict, MsgProductInUse
	case errors.Is(err, catalog.ErrEbookRequired):
		status, msg = http.StatusUnprocessableEntity, MsgEbookRequired
	case errors.Is(err, catalog.ErrInvalidFile):
		status, msg = http.StatusUnprocessableEntity, MsgInvalidFile
	case errors.Is(err, catalog.ErrInvalidProduct):
		status, msg = http.StatusUnprocessableEntity, MsgInvalidProduct
	}
	if status == http.StatusInternalServerError {
		log.Error("catalog operation failed", sl.Err(err))
	} else {
		log.Info("catalog operation rejected", sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, response.Error(msg))
}
