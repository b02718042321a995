// Package checkout содержит покупку книги, список заказов покупателя и загрузку слипа об оплате.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/ebook-store/internal/lib/filetype"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/metrics"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/objectstore"
	"github.com/magabrotheeeer/ebook-store/internal/services/events"
	"github.com/magabrotheeeer/ebook-store/internal/storage"
	"github.com/magabrotheeeer/ebook-store/internal/storage/repository"
)

var (
	// ErrNotFound - товар или заказ не найден. Чужой заказ тоже считается ненайденным.
	ErrNotFound = storage.ErrNotFound
	// ErrInvalidTransition - статус заказа не допускает загрузку слипа.
	ErrInvalidTransition = storage.ErrInvalidTransition
	// ErrAlreadyOwned - книга уже куплена.
	ErrAlreadyOwned = errors.New("product already owned")
	// ErrAlreadyPaid - заказ уже оплачен.
	ErrAlreadyPaid = errors.New("order already paid")
	// ErrInvalidSlip - слип пустой, слишком большой или не является изображением.
	ErrInvalidSlip = errors.New("invalid slip")
)

// Repository описывает хранилище, нужное для оформления заказа.
type Repository interface {
	GetActiveProduct(ctx context.Context, id string) (*models.Product, error)
	HasEntitlement(ctx context.Context, userID, productID string) (bool, error)
	CreateOrder(ctx context.Context, userID, productID string, amount int64) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*models.OrderWithProduct, error)
	GetOrderForUser(ctx context.Context, orderID, userID string) (*models.OrderWithProduct, error)
	LastRejectionReason(ctx context.Context, orderID string) (*string, error)
	SubmitSlip(ctx context.Context, in repository.SlipSubmission) (*models.PaymentNotification, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// SlipStore - приватный бакет слипов.
type SlipStore interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
}

// SlipInput - слип, загруженный покупателем.
type SlipInput struct {
	UserID  string
	OrderID string
	Slip    []byte
	Note    string
}

// Service оформляет заказы.
type Service struct {
	repo        Repository
	slips       SlipStore
	slipsBucket string
	events      *events.Emitter
	log         *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, slips SlipStore, slipsBucket string, emitter *events.Emitter, log *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		slips:       slips,
		slipsBucket: slipsBucket,
		events:      emitter,
		log:         log,
	}
}

// Buy создаёт заказ pending по текущей цене активного товара.
func (s *Service) Buy(ctx context.Context, userID, productID string) (*models.Order, error) {
	const op = "checkout.Buy"

	product, err := s.repo.GetActiveProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	owned, err := s.repo.HasEntitlement(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if owned {
		return nil, ErrAlreadyOwned
	}

	order, err := s.repo.CreateOrder(ctx, userID, product.ID, product.Price)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.OrdersCreated.Inc()
	s.log.Info("order created",
		slog.String("op", op),
		slog.String("order_id", order.ID),
		slog.String("product_id", product.ID),
		slog.Int64("amount", order.Amount))
	return order, nil
}

// Orders возвращает заказы покупателя с тайскими подписями статусов.
func (s *Service) Orders(ctx context.Context, userID string) ([]*models.OrderWithProduct, error) {
	const op = "checkout.Orders"
	orders, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, o := range orders {
		o.StatusLabel = o.Status.Label()
	}
	return orders, nil
}

// Checkout возвращает данные страницы оплаты.
// Для отклонённого заказа добавляется причина последнего отказа.
func (s *Service) Checkout(ctx context.Context, userID, orderID string) (*models.CheckoutView, error) {
	const op = "checkout.Checkout"

	order, err := s.repo.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	order.StatusLabel = order.Status.Label()

	view := &models.CheckoutView{Order: *order}
	if order.Status == models.OrderRejected {
		view.LastRejectionReason, err = s.repo.LastRejectionReason(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return view, nil
}

// SubmitSlip загружает слип и переводит заказ в submitted.
// Если запись в базу не удалась, загруженный слип удаляется.
func (s *Service) SubmitSlip(ctx context.Context, in SlipInput) (*models.PaymentNotification, error) {
	const op = "checkout.SubmitSlip"

	order, err := s.repo.GetOrderForUser(ctx, in.OrderID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.Status == models.OrderPaid {
		return nil, ErrAlreadyPaid
	}
	if !order.Status.AcceptsSlip() {
		return nil, fmt.Errorf("%s: %s: %w", op, order.Status, ErrInvalidTransition)
	}

	if len(in.Slip) == 0 || len(in.Slip) > filetype.MaxSlipSize {
		return nil, ErrInvalidSlip
	}
	detected, err := filetype.Image(in.Slip)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSlip, err)
	}

	key := objectstore.SlipKey(in.UserID, in.OrderID, time.Now(), detected.Extension)
	if err := s.slips.Upload(ctx, s.slipsBucket, key, in.Slip, detected.ContentType); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var note *string
	if trimmed := strings.TrimSpace(in.Note); trimmed != "" {
		note = &trimmed
	}
	notification, err := s.repo.SubmitSlip(ctx, repository.SlipSubmission{
		OrderID:  in.OrderID,
		UserID:   in.UserID,
		SlipPath: key,
		Note:     note,
	})
	if err != nil {
		if delErr := s.slips.Delete(ctx, s.slipsBucket, key); delErr != nil {
			s.log.Error("failed to remove orphaned slip",
				slog.String("op", op), slog.String("key", key), sl.Err(delErr))
		}
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidTransition)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.SlipsSubmitted.Inc()
	s.log.Info("slip submitted",
		slog.String("op", op),
		slog.String("order_id", in.OrderID),
		slog.String("notification_id", notification.ID))

	s.emitSubmitted(ctx, order, notification)
	return notification, nil
}

func (s *Service) emitSubmitted(ctx context.Context, order *models.OrderWithProduct, n *models.PaymentNotification) {
	const op = "checkout.emitSubmitted"
	buyer, err := s.repo.GetProfile(ctx, order.UserID)
	if err != nil {
		s.log.Warn("buyer lookup failed, event skipped", slog.String("op", op), sl.Err(err))
		return
	}
	s.events.Emit(models.PaymentEvent{
		Event:          models.EventPaymentSubmitted,
		OrderID:        order.ID,
		NotificationID: n.ID,
		UserEmail:      buyer.Email,
		DisplayName:    buyer.DisplayName,
		ProductTitle:   order.Product.Title,
		Amount:         order.Amount,
		OccurredAt:     n.CreatedAt,
	})
}
