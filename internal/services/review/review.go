// Package review содержит проверку слипов администратором: подтверждение и отклонение оплаты.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/ebook-store/internal/cache"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/metrics"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/services/events"
	"github.com/magabrotheeeer/ebook-store/internal/storage"
)

// SlipURLTTL - срок действия подписанной ссылки на слип.
const SlipURLTTL = time.Hour

var (
	// ErrNotFound - уведомление не найдено.
	ErrNotFound = storage.ErrNotFound
	// ErrAlreadyReviewed - по уведомлению уже принято другое решение.
	ErrAlreadyReviewed = storage.ErrAlreadyReviewed
	// ErrInvalidTransition - статус заказа не допускает решение.
	ErrInvalidTransition = storage.ErrInvalidTransition
	// ErrEmptyReason - причина отказа пуста.
	ErrEmptyReason = errors.New("rejection reason is required")
)

// Repository описывает хранилище уведомлений об оплате.
type Repository interface {
	ApprovePayment(ctx context.Context, notificationID, adminID string) (*models.ReviewResult, error)
	RejectPayment(ctx context.Context, notificationID, adminID, reason string) (*models.ReviewResult, error)
	ListPaymentReviews(ctx context.Context, status models.PaymentStatus) ([]*models.PaymentReview, error)
	GetPaymentReview(ctx context.Context, notificationID string) (*models.PaymentReview, error)
}

// Signer выдаёт подписанные ссылки на приватные объекты.
type Signer interface {
	PresignGet(bucket, key string, ttl time.Duration, filename string) (string, error)
}

// IdempotencyStore хранит результаты решений по ключу Idempotency-Key.
type IdempotencyStore interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)
}

// Decision - запрос администратора.
// IdempotencyKey необязателен; повтор с тем же ключом возвращает сохранённый результат.
type Decision struct {
	NotificationID string
	AdminID        string
	IdempotencyKey string
	Reason         string
}

// Service проверяет слипы.
type Service struct {
	repo        Repository
	signer      Signer
	slipsBucket string
	idem        IdempotencyStore
	events      *events.Emitter
	log         *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, signer Signer, slipsBucket string, idem IdempotencyStore, emitter *events.Emitter, log *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		signer:      signer,
		slipsBucket: slipsBucket,
		idem:        idem,
		events:      emitter,
		log:         log,
	}
}

// List возвращает уведомления с подписанными ссылками на слипы. Пустой status означает все.
func (s *Service) List(ctx context.Context, status models.PaymentStatus) ([]*models.PaymentReview, error) {
	const op = "review.List"

	reviews, err := s.repo.ListPaymentReviews(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range reviews {
		r.StatusLabel = r.Status.Label()
		signed, err := s.signer.PresignGet(s.slipsBucket, r.SlipURL, SlipURLTTL, "")
		if err != nil {
			s.log.Warn("failed to sign slip url",
				slog.String("op", op), slog.String("notification_id", r.ID), sl.Err(err))
			continue
		}
		r.SignedSlipURL = signed
	}
	return reviews, nil
}

// Approve подтверждает оплату и выдаёт право на скачивание.
// Повторное подтверждение того же уведомления ничего не меняет.
func (s *Service) Approve(ctx context.Context, d Decision) (*models.ReviewResult, error) {
	const op = "review.Approve"

	if res, ok := s.replay(ctx, actionApprove, d); ok {
		return res, nil
	}
	res, err := s.repo.ApprovePayment(ctx, d.NotificationID, d.AdminID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.remember(ctx, actionApprove, d, res)
	if res.Replayed {
		return res, nil
	}

	metrics.PaymentsReviewed.WithLabelValues("approved").Inc()
	s.log.Info("payment approved",
		slog.String("op", op),
		slog.String("notification_id", d.NotificationID),
		slog.String("order_id", res.OrderID),
		slog.String("admin_id", d.AdminID))
	s.emit(ctx, models.EventPaymentApproved, d.NotificationID, "")
	return res, nil
}

// Reject отклоняет оплату. Причина обязательна.
func (s *Service) Reject(ctx context.Context, d Decision) (*models.ReviewResult, error) {
	const op = "review.Reject"

	reason := strings.TrimSpace(d.Reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}
	if res, ok := s.replay(ctx, actionReject, d); ok {
		return res, nil
	}
	res, err := s.repo.RejectPayment(ctx, d.NotificationID, d.AdminID, reason)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.remember(ctx, actionReject, d, res)

	metrics.PaymentsReviewed.WithLabelValues("rejected").Inc()
	s.log.Info("payment rejected",
		slog.String("op", op),
		slog.String("notification_id", d.NotificationID),
		slog.String("order_id", res.OrderID),
		slog.String("admin_id", d.AdminID))
	s.emit(ctx, models.EventPaymentRejected, d.NotificationID, reason)
	return res, nil
}

// Действия администратора в ключе идемпотентности.
const (
	actionApprove = "approve"
	actionReject  = "reject"
)

// idemKey возвращает ключ Redis для решения администратора. Ключ клиента действует
// только для того же действия над тем же уведомлением.
func idemKey(action string, d Decision) string {
	return fmt.Sprintf(cache.KeyIdemReview, d.AdminID, action, d.NotificationID, d.IdempotencyKey)
}

// replay возвращает сохранённый результат запроса с тем же ключом идемпотентности.
func (s *Service) replay(ctx context.Context, action string, d Decision) (*models.ReviewResult, bool) {
	const op = "review.replay"
	if d.IdempotencyKey == "" {
		return nil, false
	}
	var res models.ReviewResult
	found, err := s.idem.Get(ctx, idemKey(action, d), &res)
	if err != nil {
		s.log.Warn("idempotency lookup failed", slog.String("op", op), sl.Err(err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	res.Replayed = true
	return &res, true
}

func (s *Service) remember(ctx context.Context, action string, d Decision, res *models.ReviewResult) {
	const op = "review.remember"
	if d.IdempotencyKey == "" {
		return
	}
	if _, err := s.idem.SetNX(ctx, idemKey(action, d), res, cache.TTLIdempotency); err != nil {
		s.log.Warn("idempotency store failed", slog.String("op", op), sl.Err(err))
	}
}

func (s *Service) emit(ctx context.Context, event, notificationID, reason string) {
	const op = "review.emit"
	r, err := s.repo.GetPaymentReview(ctx, notificationID)
	if err != nil {
		s.log.Warn("review lookup failed, event skipped", slog.String("op", op), sl.Err(err))
		return
	}
	s.events.Emit(models.PaymentEvent{
		Event:          event,
		OrderID:        r.Order.ID,
		NotificationID: r.ID,
		UserEmail:      r.BuyerEmail,
		DisplayName:    r.BuyerName,
		ProductTitle:   r.Product.Title,
		Amount:         r.Order.Amount,
		Reason:         reason,
	})
}
