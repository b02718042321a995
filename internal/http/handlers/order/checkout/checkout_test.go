package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/ebook-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	checkoutservice "github.com/magabrotheeeer/ebook-store/internal/services/checkout"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Checkout(ctx context.Context, userID, orderID string) (*models.CheckoutView, error) {
	args := m.Called(ctx, userID, orderID)
	v, _ := args.Get(0).(*models.CheckoutView)
	return v, args.Error(1)
}

const orderID = "0b7e2c4d-1f3a-4e5b-8c6d-7e8f9a0b1c2d"

func view(status models.OrderStatus, reason *string) *models.CheckoutView {
	return &models.CheckoutView{
		Order: models.OrderWithProduct{
			Order:       models.Order{ID: orderID, Amount: 250, Status: status},
			StatusLabel: status.Label(),
			Product:     models.ProductSummary{Title: "นิยาย"},
		},
		LastRejectionReason: reason,
	}
}

func TestCheckoutHandler(t *testing.T) {
	reason := "ยอดเงินไม่ครบ"

	tests := []struct {
		name             string
		id               string
		setupMock        func(*MockService)
		expectedCode     int
		expectedBody     string
		expectedLocation string
	}{
		{
			name: "ожидает оплаты",
			id:   orderID,
			setupMock: func(m *MockService) {
				m.On("Checkout", mock.Anything, "user-1", orderID).Return(view(models.OrderPending, nil), nil).Once()
			},
			expectedCode: http.StatusOK,
			expectedBody: `"amount":250`,
		},
		{
			name: "отклонён с причиной",
			id:   orderID,
			setupMock: func(m *MockService) {
				m.On("Checkout", mock.Anything, "user-1", orderID).Return(view(models.OrderRejected, &reason), nil).Once()
			},
			expectedCode: http.StatusOK,
			expectedBody: `"last_rejection_reason":"ยอดเงินไม่ครบ"`,
		},
		{
			name: "оплачен - в библиотеку",
			id:   orderID,
			setupMock: func(m *MockService) {
				m.On("Checkout", mock.Anything, "user-1", orderID).Return(view(models.OrderPaid, nil), nil).Once()
			},
			expectedCode:     http.StatusSeeOther,
			expectedLocation: "/library",
		},
		{
			name: "чужой заказ",
			id:   orderID,
			setupMock: func(m *MockService) {
				m.On("Checkout", mock.Anything, "user-1", orderID).Return(nil, checkoutservice.ErrNotFound).Once()
			},
			expectedCode: http.StatusNotFound,
			expectedBody: MsgOrderNotFound,
		},
		{
			name:         "некорректный id",
			id:           "42",
			setupMock:    func(_ *MockService) {},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "ошибка сервиса",
			id:   orderID,
			setupMock: func(m *MockService) {
				m.On("Checkout", mock.Anything, "user-1", orderID).Return(nil, errors.New("db down")).Once()
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/orders/"+tt.id+"/pay", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = middlewarectx.WithUser(ctx, "user-1", "a@example.com")
			rec := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
			}
			if tt.expectedLocation != "" {
				assert.Equal(t, tt.expectedLocation, rec.Header().Get("Location"))
			}
			svc.AssertExpectations(t)
		})
	}
}
