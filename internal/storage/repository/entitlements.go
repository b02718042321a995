package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/storage"
)

// HasEntitlement сообщает, есть ли у пользователя право на скачивание товара.
func (s *Storage) HasEntitlement(ctx context.Context, userID, productID string) (bool, error) {
	const op = "storage.HasEntitlement"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
			      SELECT 1 FROM entitlements WHERE user_id = $1 AND product_id = $2
			  )`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userID, productID).Scan(&exists); err != nil {
		if errors.Is(mapError(err), storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListLibrary возвращает купленные пользователем книги, новые первыми.
func (s *Storage) ListLibrary(ctx context.Context, userID string) ([]*models.LibraryItem, error) {
	const op = "storage.ListLibrary"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT e.id, e.user_id, e.product_id, e.order_id, e.created_at, e.expires_at,
			      p.id, p.title, p.cover_image_url, p.price
			  FROM entitlements e
			  JOIN products p ON p.id = e.product_id
			  WHERE e.user_id = $1
			  ORDER BY e.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	result := make([]*models.LibraryItem, 0)
	for rows.Next() {
		item := &models.LibraryItem{}
		var (
			expiresAt sql.NullTime
			cover     sql.NullString
		)
		if err = rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.OrderID, &item.CreatedAt,
			&expiresAt, &item.Product.ID, &item.Product.Title, &cover, &item.Product.Price); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		item.ExpiresAt = timePtr(expiresAt)
		item.Product.CoverImageURL = stringPtr(cover)
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetEntitledProduct возвращает товар, если у пользователя есть право на него.
// Деактивированный товар остаётся доступным владельцу.
func (s *Storage) GetEntitledProduct(ctx context.Context, userID, productID string) (*models.Product, error) {
	const op = "storage.GetEntitledProduct"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT p.id, p.title, p.description, p.price, p.cover_image_url, p.file_path, p.page_count,
			      p.is_active, p.created_at, p.updated_at
			  FROM entitlements e
			  JOIN products p ON p.id = e.product_id
			  WHERE e.user_id = $1 AND e.product_id = $2`
	p, err := scanProduct(s.DB.QueryRowContext(ctx, query, userID, productID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}
