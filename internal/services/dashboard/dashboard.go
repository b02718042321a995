// Package dashboard собирает счётчики для главной страницы админки.
package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/ebook-store/internal/models"
)

// Counter описывает счётчики хранилища.
type Counter interface {
	CountPendingPayments(ctx context.Context) (int, error)
	CountOrders(ctx context.Context) (int, error)
	CountProducts(ctx context.Context) (int, error)
	CountProfiles(ctx context.Context) (int, error)
}

// Service - сводка админки.
type Service struct {
	repo Counter
}

// New создает новый экземпляр Service.
func New(repo Counter) *Service {
	return &Service{repo: repo}
}

// Stats выполняет четыре запроса параллельно. Первая ошибка отменяет остальные.
func (s *Service) Stats(ctx context.Context) (*models.DashboardStats, error) {
	const op = "dashboard.Stats"
	stats := &models.DashboardStats{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.PendingPayments, err = s.repo.CountPendingPayments(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalOrders, err = s.repo.CountOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalProducts, err = s.repo.CountProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.repo.CountProfiles(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}
