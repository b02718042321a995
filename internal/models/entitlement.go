package models

import "time"

// Entitlement - право пользователя скачивать купленную книгу.
// Наличие записи означает доступ; ExpiresAt пока не используется.
type Entitlement struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	ProductID string     `json:"product_id"`
	OrderID   string     `json:"order_id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// LibraryItem - книга в библиотеке пользователя.
type LibraryItem struct {
	Entitlement
	Product ProductSummary `json:"product"`
}

// DashboardStats - счётчики для главной страницы админки.
type DashboardStats struct {
	PendingPayments int `json:"pending_payments"`
	TotalOrders     int `json:"total_orders"`
	TotalProducts   int `json:"total_products"`
	TotalUsers      int `json:"total_users"`
}
