package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/storage"
)

// SlipSubmission - данные загруженного покупателем слипа.
type SlipSubmission struct {
	OrderID  string
	UserID   string
	SlipPath string
	Note     *string
}

// SubmitSlip в одной транзакции создаёт уведомление об оплате и переводит заказ в submitted.
// Заказ блокируется и его статус проверяется повторно под блокировкой.
func (s *Storage) SubmitSlip(ctx context.Context, in SlipSubmission) (*models.PaymentNotification, error) {
	const op = "storage.SubmitSlip"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var status models.OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		in.OrderID, in.UserID).Scan(&status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	if !models.CanTransition(status, models.OrderSubmitted) {
		return nil, fmt.Errorf("%s: %s: %w", op, status, storage.ErrInvalidTransition)
	}

	n := &models.PaymentNotification{}
	var note sql.NullString
	err = tx.QueryRowContext(ctx,
		`INSERT INTO payment_notifications (order_id, slip_url, note, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, order_id, slip_url, note, status, created_at`,
		in.OrderID, in.SlipPath, nullString(in.Note), models.PaymentPending).
		Scan(&n.ID, &n.OrderID, &n.SlipURL, &note, &n.Status, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	n.Note = stringPtr(note)

	if _, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		models.OrderSubmitted, in.OrderID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// lockNotification блокирует уведомление и связанный с ним заказ.
func lockNotification(ctx context.Context, tx *sql.Tx, notificationID string) (models.PaymentStatus, *models.Order, error) {
	var (
		status  models.PaymentStatus
		orderID string
	)
	err := tx.QueryRowContext(ctx,
		`SELECT status, order_id FROM payment_notifications WHERE id = $1 FOR UPDATE`,
		notificationID).Scan(&status, &orderID)
	if err != nil {
		return "", nil, mapError(err)
	}

	o := &models.Order{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, product_id, amount, status FROM orders WHERE id = $1 FOR UPDATE`,
		orderID).Scan(&o.ID, &o.UserID, &o.ProductID, &o.Amount, &o.Status)
	if err != nil {
		return "", nil, mapError(err)
	}
	return status, o, nil
}

// ApprovePayment подтверждает оплату: уведомление становится verified, заказ paid,
// и выдаётся право на скачивание. Все три записи меняются в одной транзакции.
// Повторное подтверждение ничего не пишет и возвращает результат с Replayed = true.
func (s *Storage) ApprovePayment(ctx context.Context, notificationID, adminID string) (*models.ReviewResult, error) {
	const op = "storage.ApprovePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	status, order, err := lockNotification(ctx, tx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &models.ReviewResult{
		NotificationID: notificationID,
		OrderID:        order.ID,
		Status:         models.PaymentVerified,
		OrderStatus:    models.OrderPaid,
	}

	switch status {
	case models.PaymentVerified:
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM entitlements WHERE user_id = $1 AND product_id = $2`,
			order.UserID, order.ProductID).Scan(&result.EntitlementID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result.Replayed = true
		return result, nil
	case models.PaymentRejected:
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyReviewed)
	}

	if !models.CanTransition(order.Status, models.OrderPaid) {
		return nil, fmt.Errorf("%s: %s: %w", op, order.Status, storage.ErrInvalidTransition)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE payment_notifications SET status = $1, verified_by = $2, verified_at = NOW() WHERE id = $3`,
		models.PaymentVerified, adminID, notificationID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		models.OrderPaid, order.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO entitlements (user_id, product_id, order_id) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, product_id) DO NOTHING
		 RETURNING id`,
		order.UserID, order.ProductID, order.ID).Scan(&result.EntitlementID)
	if errors.Is(err, sql.ErrNoRows) {
		// Право уже было выдано по другому заказу на ту же книгу.
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM entitlements WHERE user_id = $1 AND product_id = $2`,
			order.UserID, order.ProductID).Scan(&result.EntitlementID)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RejectPayment отклоняет уведомление с указанной причиной и переводит заказ в rejected.
// Уведомление, по которому решение уже принято, возвращает storage.ErrAlreadyReviewed.
func (s *Storage) RejectPayment(ctx context.Context, notificationID, adminID, reason string) (*models.ReviewResult, error) {
	const op = "storage.RejectPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	status, order, err := lockNotification(ctx, tx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if status != models.PaymentPending {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyReviewed)
	}
	if !models.CanTransition(order.Status, models.OrderRejected) {
		return nil, fmt.Errorf("%s: %s: %w", op, order.Status, storage.ErrInvalidTransition)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE payment_notifications SET status = $1, rejection_reason = $2, verified_by = $3, verified_at = NOW() WHERE id = $4`,
		models.PaymentRejected, reason, adminID, notificationID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		models.OrderRejected, order.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.ReviewResult{
		NotificationID: notificationID,
		OrderID:        order.ID,
		Status:         models.PaymentRejected,
		OrderStatus:    models.OrderRejected,
	}, nil
}

const paymentReviewColumns = `n.id, n.order_id, n.slip_url, n.note, n.status, n.verified_by, n.verified_at,
	n.rejection_reason, n.created_at,
	o.id, o.user_id, o.product_id, o.amount, o.status, o.created_at, o.updated_at,
	p.id, p.title, p.cover_image_url, p.price,
	u.email, u.display_name`

const paymentReviewFrom = `
	FROM payment_notifications n
	JOIN orders o ON o.id = n.order_id
	JOIN products p ON p.id = o.product_id
	JOIN profiles u ON u.id = o.user_id`

func scanPaymentReview(row rowScanner) (*models.PaymentReview, error) {
	r := &models.PaymentReview{}
	var (
		note, verifiedBy, reason, cover sql.NullString
		verifiedAt                      sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.OrderID, &r.SlipURL, &note, &r.Status, &verifiedBy, &verifiedAt,
		&reason, &r.CreatedAt,
		&r.Order.ID, &r.Order.UserID, &r.Order.ProductID, &r.Order.Amount, &r.Order.Status,
		&r.Order.CreatedAt, &r.Order.UpdatedAt,
		&r.Product.ID, &r.Product.Title, &cover, &r.Product.Price,
		&r.BuyerEmail, &r.BuyerName); err != nil {
		return nil, err
	}
	r.Note = stringPtr(note)
	r.VerifiedBy = stringPtr(verifiedBy)
	r.VerifiedAt = timePtr(verifiedAt)
	r.RejectionReason = stringPtr(reason)
	r.Product.CoverImageURL = stringPtr(cover)
	return r, nil
}

// ListPaymentReviews возвращает уведомления об оплате с заказом, товаром и покупателем,
// новые первыми. Пустой status означает все статусы.
func (s *Storage) ListPaymentReviews(ctx context.Context, status models.PaymentStatus) ([]*models.PaymentReview, error) {
	const op = "storage.ListPaymentReviews"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentReviewColumns + paymentReviewFrom + `
			  WHERE ($1 = '' OR n.status = $1)
			  ORDER BY n.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	result := make([]*models.PaymentReview, 0)
	for rows.Next() {
		r, err := scanPaymentReview(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPaymentReview возвращает одно уведомление с заказом, товаром и покупателем.
func (s *Storage) GetPaymentReview(ctx context.Context, notificationID string) (*models.PaymentReview, error) {
	const op = "storage.GetPaymentReview"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentReviewColumns + paymentReviewFrom + `
			  WHERE n.id = $1`
	r, err := scanPaymentReview(s.DB.QueryRowContext(ctx, query, notificationID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return r, nil
}

// CountPendingPayments возвращает количество уведомлений, ожидающих проверки.
func (s *Storage) CountPendingPayments(ctx context.Context) (int, error) {
	const op = "storage.CountPendingPayments"
	return s.count(ctx, op, `SELECT COUNT(*) FROM payment_notifications WHERE status = $1`, models.PaymentPending)
}
