package expirer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ebook-store/internal/metrics"
)

type OrderRepoMock struct {
	mock.Mock
}

func (m *OrderRepoMock) ExpireStaleOrders(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func newTestService(repo OrderRepository, now time.Time) *Service {
	s := New(repo, 72*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return now }
	return s
}

func TestService_ExpireStale(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := new(OrderRepoMock)
	repo.On("ExpireStaleOrders", mock.Anything, now.Add(-72*time.Hour)).Return(int64(3), nil).Once()
	before := testutil.ToFloat64(metrics.OrdersExpired)

	n, err := newTestService(repo, now).ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.OrdersExpired))
	repo.AssertExpectations(t)
}

func TestService_ExpireStale_Nothing(t *testing.T) {
	repo := new(OrderRepoMock)
	repo.On("ExpireStaleOrders", mock.Anything, mock.Anything).Return(int64(0), nil).Once()

	n, err := newTestService(repo, time.Now()).ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_ExpireStale_Error(t *testing.T) {
	repo := new(OrderRepoMock)
	repo.On("ExpireStaleOrders", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down")).Once()

	_, err := newTestService(repo, time.Now()).ExpireStale(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expirer.ExpireStale")
}
