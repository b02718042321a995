package models

import "time"

// Order - заказ покупателя на одну книгу.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	ProductID string      `json:"product_id"`
	Amount    int64       `json:"amount"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderWithProduct - заказ вместе с кратким описанием товара.
type OrderWithProduct struct {
	Order
	StatusLabel string         `json:"status_label"`
	Product     ProductSummary `json:"product"`
}

// CheckoutView - данные страницы оплаты заказа.
// LastRejectionReason заполнен, если предыдущий слип был отклонён.
type CheckoutView struct {
	Order               OrderWithProduct `json:"order"`
	LastRejectionReason *string          `json:"last_rejection_reason,omitempty"`
}
