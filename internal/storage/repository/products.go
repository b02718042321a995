package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/storage"
)

const productColumns = `id, title, description, price, cover_image_url, file_path, page_count,
	is_active, created_at, updated_at`

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var cover sql.NullString
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &cover, &p.FilePath,
		&p.PageCount, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CoverImageURL = stringPtr(cover)
	return p, nil
}

func (s *Storage) queryProducts(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	result := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListActiveProducts возвращает активные товары, новые первыми.
// limit <= 0 означает без ограничения.
func (s *Storage) ListActiveProducts(ctx context.Context, limit int) ([]*models.Product, error) {
	const op = "storage.ListActiveProducts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + productColumns + ` FROM products
			  WHERE is_active = true
			  ORDER BY created_at DESC`
	var (
		result []*models.Product
		err    error
	)
	if limit > 0 {
		result, err = s.queryProducts(ctx, query+` LIMIT $1`, limit)
	} else {
		result, err = s.queryProducts(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetActiveProduct возвращает активный товар. Неактивный товар считается отсутствующим.
func (s *Storage) GetActiveProduct(ctx context.Context, id string) (*models.Product, error) {
	const op = "storage.GetActiveProduct"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND is_active = true`
	p, err := scanProduct(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// ListProducts возвращает все товары для админки, новые первыми.
func (s *Storage) ListProducts(ctx context.Context) ([]*models.Product, error) {
	const op = "storage.ListProducts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`
	result, err := s.queryProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetProduct возвращает товар независимо от активности.
func (s *Storage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	const op = "storage.GetProduct"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// CreateProduct сохраняет новый товар.
func (s *Storage) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	const op = "storage.CreateProduct"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO products (title, description, price, cover_image_url, file_path,
			      page_count, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + productColumns
	p, err := scanProduct(s.DB.QueryRowContext(ctx, query,
		in.Title, in.Description, in.Price, nullString(in.CoverImageURL), in.FilePath,
		in.PageCount, in.IsActive))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// UpdateProduct перезаписывает поля товара.
func (s *Storage) UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error) {
	const op = "storage.UpdateProduct"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE products
			  SET title = $2, description = $3, price = $4, cover_image_url = $5,
			      file_path = $6, page_count = $7, is_active = $8, updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + productColumns
	p, err := scanProduct(s.DB.QueryRowContext(ctx, query, id,
		in.Title, in.Description, in.Price, nullString(in.CoverImageURL), in.FilePath,
		in.PageCount, in.IsActive))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// DeleteProduct удаляет товар и возвращает удалённую запись, чтобы вызывающий мог убрать файлы.
// Если на товар ссылаются заказы, возвращается storage.ErrProductInUse.
func (s *Storage) DeleteProduct(ctx context.Context, id string) (*models.Product, error) {
	const op = "storage.DeleteProduct"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM products WHERE id = $1 RETURNING ` + productColumns
	p, err := scanProduct(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrProductInUse)
		}
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// CountProducts возвращает количество товаров.
func (s *Storage) CountProducts(ctx context.Context) (int, error) {
	const op = "storage.CountProducts"
	return s.count(ctx, op, `SELECT COUNT(*) FROM products`)
}

func (s *Storage) count(ctx context.Context, op, query string, args ...any) (int, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var n int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
