// Package expirer переводит неоплаченные заказы в статус expired.
package expirer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ebook-store/internal/metrics"
)

// OrderRepository описывает хранилище заказов.
type OrderRepository interface {
	ExpireStaleOrders(ctx context.Context, olderThan time.Time) (int64, error)
}

// Service истекает заказы pending старше ttl.
type Service struct {
	repo OrderRepository
	ttl  time.Duration
	now  func() time.Time
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo OrderRepository, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		log:  log,
	}
}

// ExpireStale выполняет один проход и возвращает число истёкших заказов.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	const op = "expirer.ExpireStale"

	cutoff := s.now().Add(-s.ttl)
	n, err := s.repo.ExpireStaleOrders(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		metrics.OrdersExpired.Add(float64(n))
		s.log.Info("stale orders expired", slog.String("op", op), slog.Int64("count", n),
			slog.Time("cutoff", cutoff))
	} else {
		s.log.Debug("no stale orders", slog.String("op", op))
	}
	return n, nil
}
