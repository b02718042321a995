package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/ebook-store/internal/models"
)

const orderWithProductColumns = `o.id, o.user_id, o.product_id, o.amount, o.status, o.created_at, o.updated_at,
	p.id, p.title, p.cover_image_url, p.price`

func scanOrderWithProduct(row rowScanner) (*models.OrderWithProduct, error) {
	o := &models.OrderWithProduct{}
	var cover sql.NullString
	if err := row.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Amount, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		&o.Product.ID, &o.Product.Title, &cover, &o.Product.Price); err != nil {
		return nil, err
	}
	o.Product.CoverImageURL = stringPtr(cover)
	return o, nil
}

// CreateOrder создаёт заказ в статусе pending по цене товара на момент покупки.
func (s *Storage) CreateOrder(ctx context.Context, userID, productID string, amount int64) (*models.Order, error) {
	const op = "storage.CreateOrder"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO orders (user_id, product_id, amount, status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, user_id, product_id, amount, status, created_at, updated_at`
	o := &models.Order{}
	if err := s.DB.QueryRowContext(ctx, query, userID, productID, amount, models.OrderPending).
		Scan(&o.ID, &o.UserID, &o.ProductID, &o.Amount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return o, nil
}

// ListOrdersByUser возвращает заказы пользователя вместе с товаром, новые первыми.
func (s *Storage) ListOrdersByUser(ctx context.Context, userID string) ([]*models.OrderWithProduct, error) {
	const op = "storage.ListOrdersByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + orderWithProductColumns + `
			  FROM orders o
			  JOIN products p ON p.id = o.product_id
			  WHERE o.user_id = $1
			  ORDER BY o.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	result := make([]*models.OrderWithProduct, 0)
	for rows.Next() {
		o, err := scanOrderWithProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetOrderForUser возвращает заказ, только если он принадлежит пользователю.
// Чужой заказ неотличим от несуществующего.
func (s *Storage) GetOrderForUser(ctx context.Context, orderID, userID string) (*models.OrderWithProduct, error) {
	const op = "storage.GetOrderForUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + orderWithProductColumns + `
			  FROM orders o
			  JOIN products p ON p.id = o.product_id
			  WHERE o.id = $1 AND o.user_id = $2`
	o, err := scanOrderWithProduct(s.DB.QueryRowContext(ctx, query, orderID, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return o, nil
}

// LastRejectionReason возвращает причину последнего отклонённого слипа по заказу или nil.
func (s *Storage) LastRejectionReason(ctx context.Context, orderID string) (*string, error) {
	const op = "storage.LastRejectionReason"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT rejection_reason FROM payment_notifications
			  WHERE order_id = $1 AND status = 'rejected'
			  ORDER BY created_at DESC
			  LIMIT 1`
	var reason sql.NullString
	err := s.DB.QueryRowContext(ctx, query, orderID).Scan(&reason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stringPtr(reason), nil
}

// ExpireStaleOrders переводит заказы pending, созданные раньше olderThan, в статус expired.
// Возвращает количество истёкших заказов.
func (s *Storage) ExpireStaleOrders(ctx context.Context, olderThan time.Time) (int64, error) {
	const op = "storage.ExpireStaleOrders"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE orders
			  SET status = $1, updated_at = NOW()
			  WHERE status = $2 AND created_at < $3`
	res, err := s.DB.ExecContext(ctx, query, models.OrderExpired, models.OrderPending, olderThan)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// CountOrders возвращает количество заказов.
func (s *Storage) CountOrders(ctx context.Context) (int, error) {
	const op = "storage.CountOrders"
	return s.count(ctx, op, `SELECT COUNT(*) FROM orders`)
}
