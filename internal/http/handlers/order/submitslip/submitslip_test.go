package submitslip

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ebook-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/services/checkout"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) SubmitSlip(ctx context.Context, in checkout.SlipInput) (*models.PaymentNotification, error) {
	args := m.Called(ctx, in)
	n, _ := args.Get(0).(*models.PaymentNotification)
	return n, args.Error(1)
}

const orderID = "0b7e2c4d-1f3a-4e5b-8c6d-7e8f9a0b1c2d"

var pngSlip = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func slipRequest(t *testing.T, slip []byte, note string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if note != "" {
		require.NoError(t, mw.WriteField("note", note))
	}
	if slip != nil {
		fw, err := mw.CreateFormFile("slip", "slip.png")
		require.NoError(t, err)
		_, err = fw.Write(slip)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID+"/pay", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", orderID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middlewarectx.WithUser(ctx, "user-1", "a@example.com")
	return req.WithContext(ctx)
}

func TestSubmitSlipHandler(t *testing.T) {
	input := checkout.SlipInput{UserID: "user-1", OrderID: orderID, Slip: pngSlip, Note: "โอนผ่าน PromptPay"}

	tests := []struct {
		name         string
		slip         []byte
		setupMock    func(*MockService)
		expectedCode int
		expectedBody string
	}{
		{
			name: "слип принят",
			slip: pngSlip,
			setupMock: func(m *MockService) {
				m.On("SubmitSlip", mock.Anything, input).
					Return(&models.PaymentNotification{ID: "n-1", OrderID: orderID, Status: models.PaymentPending}, nil).Once()
			},
			expectedCode: http.StatusCreated,
			expectedBody: `"id":"n-1"`,
		},
		{
			name:         "слип не приложен",
			slip:         nil,
			setupMock:    func(_ *MockService) {},
			expectedCode: http.StatusUnprocessableEntity,
			expectedBody: MsgSlipRequired,
		},
		{
			name: "не изображение",
			slip: pngSlip,
			setupMock: func(m *MockService) {
				m.On("SubmitSlip", mock.Anything, input).Return(nil, checkout.ErrInvalidSlip).Once()
			},
			expectedCode: http.StatusUnprocessableEntity,
			expectedBody: MsgSlipInvalid,
		},
		{
			name: "заказ уже оплачен",
			slip: pngSlip,
			setupMock: func(m *MockService) {
				m.On("SubmitSlip", mock.Anything, input).Return(nil, checkout.ErrAlreadyPaid).Once()
			},
			expectedCode: http.StatusConflict,
			expectedBody: MsgOrderPaid,
		},
		{
			name: "заказ ждёт проверки",
			slip: pngSlip,
			setupMock: func(m *MockService) {
				m.On("SubmitSlip", mock.Anything, input).
					Return(nil, errors.Join(errors.New("checkout.SubmitSlip"), checkout.ErrInvalidTransition)).Once()
			},
			expectedCode: http.StatusConflict,
			expectedBody: MsgAwaitingReview,
		},
		{
			name: "чужой заказ",
			slip: pngSlip,
			setupMock: func(m *MockService) {
				m.On("SubmitSlip", mock.Anything, input).Return(nil, checkout.ErrNotFound).Once()
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "ошибка хранилища",
			slip: pngSlip,
			setupMock: func(m *MockService) {
				m.On("SubmitSlip", mock.Anything, input).Return(nil, errors.New("s3 down")).Once()
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, slipRequest(t, tt.slip, input.Note))

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestSubmitSlipHandler_NotMultipart(t *testing.T) {
	svc := new(MockService)
	req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID+"/pay", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", orderID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "SubmitSlip", mock.Anything, mock.Anything)
}
