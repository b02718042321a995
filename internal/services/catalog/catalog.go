// Package catalog отвечает за витрину магазина и управление товарами в админке.
//
// Списки и карточки активных товаров кэшируются в Redis на cache.TTLCatalog.
// Любое изменение товара администратором сбрасывает весь кэш каталога.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/ebook-store/internal/cache"
	"github.com/magabrotheeeer/ebook-store/internal/lib/filetype"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/objectstore"
	"github.com/magabrotheeeer/ebook-store/internal/storage"
)

// FeaturedCount - число новинок на главной странице.
const FeaturedCount = 3

var (
	// ErrNotFound - товар не найден или скрыт.
	ErrNotFound = storage.ErrNotFound
	// ErrProductInUse - на товар ссылаются заказы.
	ErrProductInUse = storage.ErrProductInUse
	// ErrEbookRequired - при создании товара не передан файл книги.
	ErrEbookRequired = errors.New("ebook file is required")
	// ErrInvalidFile - файл книги или обложки не прошёл проверку.
	ErrInvalidFile = errors.New("invalid file")
	// ErrInvalidProduct - пустое название или отрицательная цена.
	ErrInvalidProduct = errors.New("invalid product")
)

// Repository описывает хранилище товаров.
type Repository interface {
	ListActiveProducts(ctx context.Context, limit int) ([]*models.Product, error)
	GetActiveProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) (*models.Product, error)
}

// EntitlementChecker проверяет, куплена ли книга пользователем.
type EntitlementChecker interface {
	HasEntitlement(ctx context.Context, userID, productID string) (bool, error)
}

// Cache - кэш каталога.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// ObjectStore - хранилище файлов книг и обложек.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
	PublicURL(bucket, key string) string
	KeyFromPublicURL(bucket, publicURL string) (string, bool)
}

// Buckets - имена бакетов для файлов товара.
type Buckets struct {
	Ebooks string
	Covers string
}

// Upload - загруженный администратором файл.
type Upload struct {
	Data []byte
}

// ProductForm - данные формы товара. Cover и Ebook необязательны при обновлении.
type ProductForm struct {
	Title       string
	Description string
	Price       int64
	IsActive    bool
	Cover       *Upload
	Ebook       *Upload
}

// ProductDetail - карточка товара для покупателя.
type ProductDetail struct {
	Product *models.Product `json:"product"`
	Owned   bool            `json:"owned"`
}

// Service - каталог товаров.
type Service struct {
	repo    Repository
	owners  EntitlementChecker
	cache   Cache
	files   ObjectStore
	buckets Buckets
	log     *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, owners EntitlementChecker, c Cache, files ObjectStore, buckets Buckets, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		owners:  owners,
		cache:   c,
		files:   files,
		buckets: buckets,
		log:     log,
	}
}

// Featured возвращает новинки для главной страницы.
func (s *Service) Featured(ctx context.Context) ([]*models.Product, error) {
	return s.listActive(ctx, FeaturedCount)
}

// ListActive возвращает все активные товары, новые первыми.
func (s *Service) ListActive(ctx context.Context) ([]*models.Product, error) {
	return s.listActive(ctx, 0)
}

func (s *Service) listActive(ctx context.Context, limit int) ([]*models.Product, error) {
	const op = "catalog.listActive"
	key := fmt.Sprintf(cache.KeyCatalogList, limit)

	var products []*models.Product
	found, err := s.cache.Get(ctx, key, &products)
	if err != nil {
		s.log.Warn("catalog cache read failed", slog.String("op", op), sl.Err(err))
	}
	if found {
		return products, nil
	}

	products, err = s.repo.ListActiveProducts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, products, cache.TTLCatalog); err != nil {
		s.log.Warn("catalog cache write failed", slog.String("op", op), sl.Err(err))
	}
	return products, nil
}

// Detail возвращает активный товар и признак владения для userID.
// Для анонимного покупателя userID пустой и Owned всегда false.
func (s *Service) Detail(ctx context.Context, productID, userID string) (*ProductDetail, error) {
	const op = "catalog.Detail"
	key := fmt.Sprintf(cache.KeyCatalogProduct, productID)

	product := &models.Product{}
	found, err := s.cache.Get(ctx, key, product)
	if err != nil {
		s.log.Warn("catalog cache read failed", slog.String("op", op), sl.Err(err))
	}
	if !found {
		product, err = s.repo.GetActiveProduct(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.cache.Set(ctx, key, product, cache.TTLCatalog); err != nil {
			s.log.Warn("catalog cache write failed", slog.String("op", op), sl.Err(err))
		}
	}

	detail := &ProductDetail{Product: product}
	if userID == "" {
		return detail, nil
	}
	detail.Owned, err = s.owners.HasEntitlement(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return detail, nil
}

// List возвращает все товары для админки, включая скрытые.
func (s *Service) List(ctx context.Context) ([]*models.Product, error) {
	const op = "catalog.List"
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

// Get возвращает товар для редактирования.
func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	const op = "catalog.Get"
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// storedFile - файл, уже загруженный в хранилище в рамках одной операции.
type storedFile struct {
	bucket string
	key    string
}

// Create сохраняет новый товар. Файл книги обязателен.
// Если запись в базу не удалась, загруженные файлы удаляются.
func (s *Service) Create(ctx context.Context, form ProductForm) (*models.Product, error) {
	const op = "catalog.Create"

	if err := validateForm(form); err != nil {
		return nil, err
	}
	if form.Ebook == nil {
		return nil, ErrEbookRequired
	}

	in := models.ProductInput{
		Title:       strings.TrimSpace(form.Title),
		Description: form.Description,
		Price:       form.Price,
		IsActive:    form.IsActive,
	}
	uploaded, err := s.storeFiles(ctx, form, &in)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.CreateProduct(ctx, in)
	if err != nil {
		s.removeFiles(ctx, uploaded)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	s.log.Info("product created", slog.String("op", op), slog.String("product_id", product.ID))
	return product, nil
}

// Update меняет товар. Без новых файлов сохраняются прежние пути.
// Замещённые файлы удаляются после успешной записи.
func (s *Service) Update(ctx context.Context, id string, form ProductForm) (*models.Product, error) {
	const op = "catalog.Update"

	if err := validateForm(form); err != nil {
		return nil, err
	}
	current, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	in := models.ProductInput{
		Title:         strings.TrimSpace(form.Title),
		Description:   form.Description,
		Price:         form.Price,
		IsActive:      form.IsActive,
		CoverImageURL: current.CoverImageURL,
		FilePath:      current.FilePath,
		PageCount:     current.PageCount,
	}
	uploaded, err := s.storeFiles(ctx, form, &in)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.UpdateProduct(ctx, id, in)
	if err != nil {
		s.removeFiles(ctx, uploaded)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var replaced []storedFile
	if form.Ebook != nil && current.FilePath != "" && current.FilePath != in.FilePath {
		replaced = append(replaced, storedFile{bucket: s.buckets.Ebooks, key: current.FilePath})
	}
	if form.Cover != nil {
		replaced = append(replaced, s.coverFile(current.CoverImageURL)...)
	}
	s.removeFiles(ctx, replaced)

	s.invalidate(ctx)
	s.log.Info("product updated", slog.String("op", op), slog.String("product_id", id))
	return product, nil
}

// Delete удаляет товар без заказов вместе с его файлами.
// Товар с заказами удалить нельзя: возвращается ErrProductInUse, его следует скрыть.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "catalog.Delete"

	product, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	files := s.coverFile(product.CoverImageURL)
	if product.FilePath != "" {
		files = append(files, storedFile{bucket: s.buckets.Ebooks, key: product.FilePath})
	}
	s.removeFiles(ctx, files)

	s.invalidate(ctx)
	s.log.Info("product deleted", slog.String("op", op), slog.String("product_id", id))
	return nil
}

func validateForm(form ProductForm) error {
	if strings.TrimSpace(form.Title) == "" || form.Price < 0 {
		return ErrInvalidProduct
	}
	return nil
}

// storeFiles проверяет и загружает переданные файлы, записывая их пути в in.
// При ошибке уже загруженные файлы удаляются.
func (s *Service) storeFiles(ctx context.Context, form ProductForm, in *models.ProductInput) ([]storedFile, error) {
	const op = "catalog.storeFiles"
	now := time.Now()

	var ebook, cover filetype.Detected
	var pageCount int
	var err error
	if form.Ebook != nil {
		ebook, err = filetype.Ebook(form.Ebook.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: ebook: %v", ErrInvalidFile, err)
		}
		if ebook.ContentType == "application/pdf" {
			pageCount, err = filetype.PDFPageCount(form.Ebook.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: ebook: %v", ErrInvalidFile, err)
			}
		}
	}
	if form.Cover != nil {
		cover, err = filetype.Image(form.Cover.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: cover: %v", ErrInvalidFile, err)
		}
	}

	var uploaded []storedFile
	if form.Ebook != nil {
		key := objectstore.AssetKey(now, ebook.Extension)
		if err := s.files.Upload(ctx, s.buckets.Ebooks, key, form.Ebook.Data, ebook.ContentType); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		uploaded = append(uploaded, storedFile{bucket: s.buckets.Ebooks, key: key})
		in.FilePath = key
		in.PageCount = pageCount
	}
	if form.Cover != nil {
		key := objectstore.AssetKey(now, cover.Extension)
		if err := s.files.Upload(ctx, s.buckets.Covers, key, form.Cover.Data, cover.ContentType); err != nil {
			s.removeFiles(ctx, uploaded)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		uploaded = append(uploaded, storedFile{bucket: s.buckets.Covers, key: key})
		url := s.files.PublicURL(s.buckets.Covers, key)
		in.CoverImageURL = &url
	}
	return uploaded, nil
}

func (s *Service) coverFile(coverURL *string) []storedFile {
	if coverURL == nil {
		return nil
	}
	key, ok := s.files.KeyFromPublicURL(s.buckets.Covers, *coverURL)
	if !ok {
		return nil
	}
	return []storedFile{{bucket: s.buckets.Covers, key: key}}
}

// removeFiles удаляет файлы без возврата ошибок: оставшийся объект только занимает место.
func (s *Service) removeFiles(ctx context.Context, files []storedFile) {
	const op = "catalog.removeFiles"
	for _, f := range files {
		if err := s.files.Delete(ctx, f.bucket, f.key); err != nil {
			s.log.Warn("failed to delete object", slog.String("op", op),
				slog.String("bucket", f.bucket), slog.String("key", f.key), sl.Err(err))
		}
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.InvalidatePrefix(ctx, cache.PrefixCatalog); err != nil {
		s.log.Warn("catalog cache invalidation failed", sl.Err(err))
	}
}
