package catalog_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ebook-store/internal/cache"
	"github.com/magabrotheeeer/ebook-store/internal/config"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/services/catalog"
	"github.com/magabrotheeeer/ebook-store/internal/storage"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) products(args mock.Arguments) ([]*models.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Product), args.Error(1)
}

func (m *RepoMock) product(args mock.Arguments) (*models.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *RepoMock) ListActiveProducts(ctx context.Context, limit int) ([]*models.Product, error) {
	return m.products(m.Called(ctx, limit))
}

func (m *RepoMock) GetActiveProduct(ctx context.Context, id string) (*models.Product, error) {
	return m.product(m.Called(ctx, id))
}

func (m *RepoMock) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *RepoMock) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return m.product(m.Called(ctx, id))
}

func (m *RepoMock) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	return m.product(m.Called(ctx, in))
}

func (m *RepoMock) UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error) {
	return m.product(m.Called(ctx, id, in))
}

func (m *RepoMock) DeleteProduct(ctx context.Context, id string) (*models.Product, error) {
	return m.product(m.Called(ctx, id))
}

type OwnersMock struct {
	mock.Mock
}

func (m *OwnersMock) HasEntitlement(ctx context.Context, userID, productID string) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

type FilesMock struct {
	mock.Mock
}

func (m *FilesMock) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	return m.Called(ctx, bucket, key, data, contentType).Error(0)
}

func (m *FilesMock) Delete(ctx context.Context, bucket, key string) error {
	return m.Called(ctx, bucket, key).Error(0)
}

func (m *FilesMock) PublicURL(bucket, key string) string {
	return "https://cdn.test/" + bucket + "/" + key
}

func (m *FilesMock) KeyFromPublicURL(bucket, publicURL string) (string, bool) {
	prefix := "https://cdn.test/" + bucket + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(publicURL, prefix), true
}

type fixture struct {
	svc    *catalog.Service
	repo   *RepoMock
	owners *OwnersMock
	files  *FilesMock
	redis  *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	f := &fixture{repo: new(RepoMock), owners: new(OwnersMock), files: new(FilesMock), redis: mr}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = catalog.New(f.repo, f.owners, c, f.files,
		catalog.Buckets{Ebooks: "ebooks", Covers: "covers"}, log)
	return f
}

// buildPDF собирает минимальный корректный PDF с pages страницами.
func buildPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int
	write := func(obj string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}

	buf.WriteString("%PDF-1.4\n")
	write("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	write(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, pages))
	for i := 0; i < pages; i++ {
		write(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", i+3))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestService_Featured_UsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	products := []*models.Product{{ID: "p3", Title: "สาม"}, {ID: "p2", Title: "สอง"}}

	f.repo.On("ListActiveProducts", mock.Anything, catalog.FeaturedCount).Return(products, nil).Once()

	got, err := f.svc.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// второй вызов обслуживается из кэша
	got, err = f.svc.Featured(ctx)
	require.NoError(t, err)
	assert.Equal(t, "สาม", got[0].Title)
	assert.True(t, f.redis.Exists(fmt.Sprintf(cache.KeyCatalogList, catalog.FeaturedCount)))

	f.repo.AssertExpectations(t)
}

func TestService_ListActive_RepoError(t *testing.T) {
	f := newFixture(t)
	f.repo.On("ListActiveProducts", mock.Anything, 0).Return(nil, errors.New("db down")).Once()

	_, err := f.svc.ListActive(context.Background())
	require.Error(t, err)
	assert.False(t, f.redis.Exists(fmt.Sprintf(cache.KeyCatalogList, 0)))
}

func TestService_Detail(t *testing.T) {
	product := &models.Product{ID: "p1", Title: "นิยาย", Price: 500, IsActive: true}

	tests := []struct {
		name       string
		userID     string
		setupMocks func(f *fixture)
		wantOwned  bool
		wantErr    error
	}{
		{
			name:   "аноним не владеет книгой",
			userID: "",
			setupMocks: func(f *fixture) {
				f.repo.On("GetActiveProduct", mock.Anything, "p1").Return(product, nil).Once()
			},
		},
		{
			name:   "покупатель с правом",
			userID: "u1",
			setupMocks: func(f *fixture) {
				f.repo.On("GetActiveProduct", mock.Anything, "p1").Return(product, nil).Once()
				f.owners.On("HasEntitlement", mock.Anything, "u1", "p1").Return(true, nil).Once()
			},
			wantOwned: true,
		},
		{
			name:   "покупатель без права",
			userID: "u2",
			setupMocks: func(f *fixture) {
				f.repo.On("GetActiveProduct", mock.Anything, "p1").Return(product, nil).Once()
				f.owners.On("HasEntitlement", mock.Anything, "u2", "p1").Return(false, nil).Once()
			},
		},
		{
			name:   "скрытый товар",
			userID: "u1",
			setupMocks: func(f *fixture) {
				f.repo.On("GetActiveProduct", mock.Anything, "p1").
					Return(nil, fmt.Errorf("storage.GetActiveProduct: %w", storage.ErrNotFound)).Once()
			},
			wantErr: catalog.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMocks(f)

			got, err := f.svc.Detail(context.Background(), "p1", tt.userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "p1", got.Product.ID)
			assert.Equal(t, tt.wantOwned, got.Owned)

			f.repo.AssertExpectations(t)
			f.owners.AssertExpectations(t)
		})
	}
}

func TestService_Detail_OwnershipNotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := &models.Product{ID: "p1", Title: "นิยาย", IsActive: true}

	f.repo.On("GetActiveProduct", mock.Anything, "p1").Return(product, nil).Once()
	f.owners.On("HasEntitlement", mock.Anything, "u1", "p1").Return(false, nil).Once()
	f.owners.On("HasEntitlement", mock.Anything, "u1", "p1").Return(true, nil).Once()

	first, err := f.svc.Detail(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.False(t, first.Owned)

	second, err := f.svc.Detail(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.True(t, second.Owned)

	f.repo.AssertExpectations(t)
	f.owners.AssertExpectations(t)
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pdf := buildPDF(3)

	// кэш каталога должен сброситься
	f.redis.Set(fmt.Sprintf(cache.KeyCatalogList, 0), "[]")

	f.files.On("Upload", mock.Anything, "ebooks", mock.MatchedBy(func(k string) bool {
		return strings.HasSuffix(k, ".pdf")
	}), pdf, "application/pdf").Return(nil).Once()
	f.files.On("Upload", mock.Anything, "covers", mock.MatchedBy(func(k string) bool {
		return strings.HasSuffix(k, ".png")
	}), pngData, "image/png").Return(nil).Once()
	f.repo.On("CreateProduct", mock.Anything, mock.MatchedBy(func(in models.ProductInput) bool {
		return in.Title == "นิยายใหม่" &&
			in.Price == 500 &&
			in.PageCount == 3 &&
			strings.HasSuffix(in.FilePath, ".pdf") &&
			in.CoverImageURL != nil && strings.HasPrefix(*in.CoverImageURL, "https://cdn.test/covers/")
	})).Return(&models.Product{ID: "p1", Title: "นิยายใหม่"}, nil).Once()

	got, err := f.svc.Create(ctx, catalog.ProductForm{
		Title:    "  นิยายใหม่ ",
		Price:    500,
		IsActive: true,
		Ebook:    &catalog.Upload{Data: pdf},
		Cover:    &catalog.Upload{Data: pngData},
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.False(t, f.redis.Exists(fmt.Sprintf(cache.KeyCatalogList, 0)))

	f.files.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		form    catalog.ProductForm
		wantErr error
	}{
		{name: "без файла книги", form: catalog.ProductForm{Title: "t", Price: 1}, wantErr: catalog.ErrEbookRequired},
		{name: "пустое название", form: catalog.ProductForm{Title: "  ", Price: 1}, wantErr: catalog.ErrInvalidProduct},
		{name: "отрицательная цена", form: catalog.ProductForm{Title: "t", Price: -1}, wantErr: catalog.ErrInvalidProduct},
		{
			name:    "книга не pdf",
			form:    catalog.ProductForm{Title: "t", Price: 1, Ebook: &catalog.Upload{Data: pngData}},
			wantErr: catalog.ErrInvalidFile,
		},
		{
			name:    "битый pdf",
			form:    catalog.ProductForm{Title: "t", Price: 1, Ebook: &catalog.Upload{Data: []byte("%PDF-1.4\ngarbage")}},
			wantErr: catalog.ErrInvalidFile,
		},
		{
			name: "обложка не изображение",
			form: catalog.ProductForm{Title: "t", Price: 1,
				Ebook: &catalog.Upload{Data: buildPDF(1)}, Cover: &catalog.Upload{Data: []byte("hello")}},
			wantErr: catalog.ErrInvalidFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Create(context.Background(), tt.form)
			assert.ErrorIs(t, err, tt.wantErr)
			f.files.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			f.repo.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Create_DBErrorRemovesFiles(t *testing.T) {
	f := newFixture(t)
	pdf := buildPDF(1)

	var uploadedKey string
	f.files.On("Upload", mock.Anything, "ebooks", mock.Anything, pdf, "application/pdf").
		Run(func(args mock.Arguments) { uploadedKey = args.String(2) }).Return(nil).Once()
	f.repo.On("CreateProduct", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
	f.files.On("Delete", mock.Anything, "ebooks", mock.Anything).Return(nil).Once()

	_, err := f.svc.Create(context.Background(), catalog.ProductForm{Title: "t", Ebook: &catalog.Upload{Data: pdf}})
	require.Error(t, err)

	f.files.AssertCalled(t, "Delete", mock.Anything, "ebooks", uploadedKey)
	f.files.AssertExpectations(t)
}

func TestService_Update_KeepsExistingFiles(t *testing.T) {
	f := newFixture(t)
	cover := "https://cdn.test/covers/old.png"
	current := &models.Product{ID: "p1", Title: "old", FilePath: "old.pdf", PageCount: 10, CoverImageURL: &cover}

	f.repo.On("GetProduct", mock.Anything, "p1").Return(current, nil).Once()
	f.repo.On("UpdateProduct", mock.Anything, "p1", mock.MatchedBy(func(in models.ProductInput) bool {
		return in.Title == "new" && in.FilePath == "old.pdf" && in.PageCount == 10 &&
			in.CoverImageURL != nil && *in.CoverImageURL == cover && !in.IsActive
	})).Return(&models.Product{ID: "p1", Title: "new"}, nil).Once()

	got, err := f.svc.Update(context.Background(), "p1", catalog.ProductForm{Title: "new", Price: 10})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)

	f.files.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertExpectations(t)
}

func TestService_Update_ReplacesFiles(t *testing.T) {
	f := newFixture(t)
	cover := "https://cdn.test/covers/old.png"
	current := &models.Product{ID: "p1", FilePath: "old.pdf", PageCount: 10, CoverImageURL: &cover}
	pdf := buildPDF(2)

	f.repo.On("GetProduct", mock.Anything, "p1").Return(current, nil).Once()
	f.files.On("Upload", mock.Anything, "ebooks", mock.Anything, pdf, "application/pdf").Return(nil).Once()
	f.files.On("Upload", mock.Anything, "covers", mock.Anything, pngData, "image/png").Return(nil).Once()
	f.repo.On("UpdateProduct", mock.Anything, "p1", mock.MatchedBy(func(in models.ProductInput) bool {
		return in.FilePath != "old.pdf" && in.PageCount == 2 && *in.CoverImageURL != cover
	})).Return(&models.Product{ID: "p1"}, nil).Once()
	f.files.On("Delete", mock.Anything, "ebooks", "old.pdf").Return(nil).Once()
	f.files.On("Delete", mock.Anything, "covers", "old.png").Return(errors.New("s3 down")).Once()

	_, err := f.svc.Update(context.Background(), "p1", catalog.ProductForm{
		Title: "t",
		Ebook: &catalog.Upload{Data: pdf},
		Cover: &catalog.Upload{Data: pngData},
	})
	require.NoError(t, err)

	f.files.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}

func TestService_Update_NotFound(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetProduct", mock.Anything, "missing").Return(nil, storage.ErrNotFound).Once()

	_, err := f.svc.Update(context.Background(), "missing", catalog.ProductForm{Title: "t"})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	t.Run("удаляет товар и файлы", func(t *testing.T) {
		f := newFixture(t)
		cover := "https://cdn.test/covers/c.png"
		f.redis.Set(fmt.Sprintf(cache.KeyCatalogProduct, "p1"), "{}")

		f.repo.On("DeleteProduct", mock.Anything, "p1").
			Return(&models.Product{ID: "p1", FilePath: "b.pdf", CoverImageURL: &cover}, nil).Once()
		f.files.On("Delete", mock.Anything, "covers", "c.png").Return(nil).Once()
		f.files.On("Delete", mock.Anything, "ebooks", "b.pdf").Return(nil).Once()

		require.NoError(t, f.svc.Delete(context.Background(), "p1"))
		assert.False(t, f.redis.Exists(fmt.Sprintf(cache.KeyCatalogProduct, "p1")))
		f.files.AssertExpectations(t)
	})

	t.Run("товар с заказами", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("DeleteProduct", mock.Anything, "p1").
			Return(nil, fmt.Errorf("storage.DeleteProduct: %w", storage.ErrProductInUse)).Once()

		err := f.svc.Delete(context.Background(), "p1")
		assert.ErrorIs(t, err, catalog.ErrProductInUse)
		f.files.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}
