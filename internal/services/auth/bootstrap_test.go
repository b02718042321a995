package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/ebook-store/internal/lib/password"
	"github.com/magabrotheeeer/ebook-store/internal/services/auth"
)

type AdminStoreMock struct {
	mock.Mock
}

func (m *AdminStoreMock) EnsureAdmin(ctx context.Context, email, displayName, passwordHash string) (bool, error) {
	args := m.Called(ctx, email, displayName, passwordHash)
	return args.Bool(0), args.Error(1)
}

func TestBootstrapAdmin(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name      string
		email     string
		password  string
		setupMock func(*AdminStoreMock)
		wantErr   error
		anyErr    bool
	}{
		{
			name:     "создание администратора",
			email:    "  Owner@Shop.example ",
			password: "s3cret-pass",
			setupMock: func(m *AdminStoreMock) {
				m.On("EnsureAdmin", mock.Anything, "owner@shop.example", "owner@shop.example",
					mock.MatchedBy(func(hash string) bool {
						return password.CompareHash(hash, "s3cret-pass") == nil
					})).Return(true, nil).Once()
			},
		},
		{
			name:     "профиль уже есть",
			email:    "owner@shop.example",
			password: "s3cret-pass",
			setupMock: func(m *AdminStoreMock) {
				m.On("EnsureAdmin", mock.Anything, "owner@shop.example", "owner@shop.example", mock.Anything).
					Return(false, nil).Once()
			},
		},
		{
			name:      "email не задан",
			email:     " ",
			setupMock: func(_ *AdminStoreMock) {},
		},
		{
			name:      "короткий пароль",
			email:     "owner@shop.example",
			password:  "12345",
			setupMock: func(_ *AdminStoreMock) {},
			wantErr:   auth.ErrWeakPassword,
		},
		{
			name:     "ошибка базы",
			email:    "owner@shop.example",
			password: "s3cret-pass",
			setupMock: func(m *AdminStoreMock) {
				m.On("EnsureAdmin", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(false, errors.New("db down")).Once()
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(AdminStoreMock)
			tt.setupMock(store)

			err := auth.BootstrapAdmin(context.Background(), store, tt.email, tt.password, log)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
			store.AssertExpectations(t)
		})
	}
}
