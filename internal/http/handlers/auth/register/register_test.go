package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/services/auth"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Register(ctx context.Context, email, displayName, rawPassword string) (*models.Profile, error) {
	args := m.Called(ctx, email, displayName, rawPassword)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func TestRegisterHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name         string
		body         string
		setupMock    func(*AuthServiceMock)
		expectedCode int
		expectedBody string
	}{
		{
			name: "успешная регистрация",
			body: `{"email":"buyer@example.com","password":"secret1","confirm_password":"secret1","display_name":"สมชาย"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, "buyer@example.com", "สมชาย", "secret1").
					Return(&models.Profile{ID: "user-1", Email: "buyer@example.com", DisplayName: "สมชาย"}, nil).Once()
			},
			expectedCode: http.StatusCreated,
			expectedBody: `"display_name":"สมชาย"`,
		},
		{
			name:         "пароли не совпадают",
			body:         `{"email":"buyer@example.com","password":"secret1","confirm_password":"secret2"}`,
			setupMock:    func(_ *AuthServiceMock) {},
			expectedCode: http.StatusUnprocessableEntity,
			expectedBody: "รหัสผ่านไม่ตรงกัน",
		},
		{
			name:         "короткий пароль",
			body:         `{"email":"buyer@example.com","password":"123","confirm_password":"123"}`,
			setupMock:    func(_ *AuthServiceMock) {},
			expectedCode: http.StatusUnprocessableEntity,
			expectedBody: "อย่างน้อย 6",
		},
		{
			name:         "битый JSON",
			body:         `{"email":`,
			setupMock:    func(_ *AuthServiceMock) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `"status":"Error"`,
		},
		{
			name: "email занят",
			body: `{"email":"buyer@example.com","password":"secret1","confirm_password":"secret1"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, "buyer@example.com", "", "secret1").
					Return(nil, auth.ErrEmailTaken).Once()
			},
			expectedCode: http.StatusConflict,
			expectedBody: "อีเมลนี้ถูกใช้สมัครสมาชิกแล้ว",
		},
		{
			name: "ошибка сервиса",
			body: `{"email":"buyer@example.com","password":"secret1","confirm_password":"secret1"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, "buyer@example.com", "", "secret1").
					Return(nil, errors.New("db down")).Once()
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: `"status":"Error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AuthServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			assert.True(t, json.Valid(rec.Body.Bytes()))
			svc.AssertExpectations(t)
		})
	}
}
