// Package library отвечает за библиотеку покупателя и выдачу ссылок на скачивание купленных книг.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/magabrotheeeer/ebook-store/internal/metrics"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/storage"
)

// DownloadURLTTL - срок действия ссылки на скачивание.
const DownloadURLTTL = time.Hour

// ErrForbidden - у пользователя нет права на книгу.
var ErrForbidden = errors.New("product not owned")

// Repository описывает хранилище прав на скачивание.
type Repository interface {
	HasEntitlement(ctx context.Context, userID, productID string) (bool, error)
	ListLibrary(ctx context.Context, userID string) ([]*models.LibraryItem, error)
	GetEntitledProduct(ctx context.Context, userID, productID string) (*models.Product, error)
}

// Signer выдаёт подписанные ссылки на приватные объекты.
type Signer interface {
	PresignGet(bucket, key string, ttl time.Duration, filename string) (string, error)
}

// Download - ссылка на скачивание книги.
type Download struct {
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service - библиотека покупателя.
type Service struct {
	repo         Repository
	signer       Signer
	ebooksBucket string
	log          *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, signer Signer, ebooksBucket string, log *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		signer:       signer,
		ebooksBucket: ebooksBucket,
		log:          log,
	}
}

// Owns сообщает, купил ли пользователь книгу.
func (s *Service) Owns(ctx context.Context, userID, productID string) (bool, error) {
	const op = "library.Owns"
	ok, err := s.repo.HasEntitlement(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// List возвращает купленные книги, новые первыми.
func (s *Service) List(ctx context.Context, userID string) ([]*models.LibraryItem, error) {
	const op = "library.List"
	items, err := s.repo.ListLibrary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// DownloadURL выдаёт ссылку на файл книги, действующую DownloadURLTTL.
// Без права на книгу возвращается ErrForbidden.
func (s *Service) DownloadURL(ctx context.Context, userID, productID string) (*Download, error) {
	const op = "library.DownloadURL"

	product, err := s.repo.GetEntitledProduct(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	filename := DownloadFilename(product.Title, product.FilePath)
	expiresAt := time.Now().Add(DownloadURLTTL)
	url, err := s.signer.PresignGet(s.ebooksBucket, product.FilePath, DownloadURLTTL, filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.DownloadsSigned.Inc()
	s.log.Info("download link issued",
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("product_id", productID))
	return &Download{URL: url, Filename: filename, ExpiresAt: expiresAt}, nil
}

// DownloadFilename - имя файла для сохранения: "<title>.<ext>", по умолчанию .pdf.
func DownloadFilename(title, filePath string) string {
	ext := path.Ext(filePath)
	if ext == "" {
		ext = ".pdf"
	}
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "ebook"
	}
	return name + ext
}
