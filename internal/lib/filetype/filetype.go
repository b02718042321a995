// Package filetype определяет тип загружаемых файлов по содержимому
// и читает количество страниц PDF.
package filetype

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// MaxSlipSize - максимальный размер слипа, 10 MiB.
const MaxSlipSize = 10 << 20

// ErrUnsupported - содержимое файла не подходит под допустимые типы.
var ErrUnsupported = errors.New("unsupported file type")

var imageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/heic", "image/heif"}

var ebookTypes = []string{"application/pdf", "application/epub+zip"}

// Detected - результат определения типа.
type Detected struct {
	ContentType string
	Extension   string
}

func detect(data []byte, allowed []string) (Detected, error) {
	m := mimetype.Detect(data)
	for _, t := range allowed {
		if m.Is(t) {
			return Detected{ContentType: t, Extension: m.Extension()}, nil
		}
	}
	return Detected{}, fmt.Errorf("%w: %s", ErrUnsupported, m.String())
}

// Image проверяет, что data является растровым изображением.
func Image(data []byte) (Detected, error) {
	return detect(data, imageTypes)
}

// Ebook проверяет, что data является PDF или EPUB.
func Ebook(data []byte) (Detected, error) {
	return detect(data, ebookTypes)
}

// PDFPageCount возвращает количество страниц PDF. Битый файл возвращает ошибку.
func PDFPageCount(content []byte) (n int, err error) {
	const op = "filetype.PDFPageCount"
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%s: malformed pdf: %v", op, r)
		}
	}()

	content = trimAfterEOF(content)
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n = reader.NumPage()
	if n == 0 {
		return 0, fmt.Errorf("%s: pdf has no pages", op)
	}
	return n, nil
}

// trimAfterEOF отрезает мусор после последнего маркера %%EOF.
func trimAfterEOF(content []byte) []byte {
	eof := []byte("%%EOF")
	i := bytes.LastIndex(content, eof)
	if i == -1 {
		return content
	}
	end := i + len(eof)
	for end < len(content) && (content[end] == '\n' || content[end] == '\r') {
		end++
	}
	return content[:end]
}
