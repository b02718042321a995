// Package upload читает файлы из multipart-форм с ограничением размера.
package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// memoryLimit - сколько формы держать в памяти, остальное уходит во временные файлы.
const memoryLimit = 1 << 20

var (
	// ErrTooLarge - файл или вся форма больше допустимого размера.
	ErrTooLarge = errors.New("upload too large")
	// ErrNotMultipart - тело запроса не multipart/form-data.
	ErrNotMultipart = errors.New("request is not multipart")
)

// ParseForm ограничивает тело запроса maxBody байтами и разбирает multipart-форму.
func ParseForm(w http.ResponseWriter, r *http.Request, maxBody int64) error {
	const op = "upload.ParseForm"

	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return ErrTooLarge
		case errors.Is(err, http.ErrNotMultipart):
			return ErrNotMultipart
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// File возвращает содержимое файла из поля формы. nil без ошибки означает, что файл не передан.
// Файл больше limit байт даёт ErrTooLarge.
func File(r *http.Request, field string, limit int64) ([]byte, error) {
	const op = "upload.File"

	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}
