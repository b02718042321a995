package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/ebook-store/internal/migrations"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateProfile создает тестового пользователя и возвращает его ID
func (f *TestDataFactory) CreateProfile(t *testing.T, email string, admin bool) string {
	var role any
	if admin {
		role = "admin"
	}
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO profiles (email, display_name, role, password_hash)
		VALUES ($1, $1, $2, 'hash') RETURNING id`, email, role).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateProduct создает тестовый товар и возвращает его ID
func (f *TestDataFactory) CreateProduct(t *testing.T, title string, price int64, active bool) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO products (title, price, file_path, is_active)
		VALUES ($1, $2, $3, $4) RETURNING id`, title, price, title+".pdf", active).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateOrder создает тестовый заказ в заданном статусе
func (f *TestDataFactory) CreateOrder(t *testing.T, userID, productID string, amount int64, status string,
	createdAt time.Time) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO orders (user_id, product_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`, userID, productID, amount, status, createdAt).Scan(&id)
	require.NoError(t, err)
	return id
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// OrderStatus возвращает статус заказа
func (v *TestVerification) OrderStatus(t *testing.T, orderID string) string {
	var status string
	err := v.storage.DB.QueryRow(`SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
	require.NoError(t, err)
	return status
}

// EntitlementCount возвращает число прав пользователя на товар
func (v *TestVerification) EntitlementCount(t *testing.T, userID, productID string) int {
	var n int
	err := v.storage.DB.QueryRow(`SELECT COUNT(*) FROM entitlements WHERE user_id = $1 AND product_id = $2`,
		userID, productID).Scan(&n)
	require.NoError(t, err)
	return n
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL и накатывает миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "Failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "Failed to apply migrations")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		_ = pgContainer.Terminate(ctx)
	}

	return storage, cleanup
}
