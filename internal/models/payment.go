package models

import "time"

// PaymentNotification - уведомление об оплате со ссылкой на загруженный слип.
type PaymentNotification struct {
	ID              string        `json:"id"`
	OrderID         string        `json:"order_id"`
	SlipURL         string        `json:"slip_path"` // Ключ объекта в бакете slips
	Note            *string       `json:"note"`
	Status          PaymentStatus `json:"status"`
	VerifiedBy      *string       `json:"verified_by"`
	VerifiedAt      *time.Time    `json:"verified_at"`
	RejectionReason *string       `json:"rejection_reason"`
	CreatedAt       time.Time     `json:"created_at"`
}

// PaymentReview - строка списка платежей в админке: уведомление, заказ, товар и покупатель.
type PaymentReview struct {
	PaymentNotification
	StatusLabel   string         `json:"status_label"`
	Order         Order          `json:"order"`
	Product       ProductSummary `json:"product"`
	BuyerEmail    string         `json:"buyer_email"`
	BuyerName     string         `json:"buyer_name"`
	SignedSlipURL string         `json:"signed_slip_url,omitempty"`
}

// ReviewResult - итог решения администратора по уведомлению.
type ReviewResult struct {
	NotificationID string        `json:"notification_id"`
	OrderID        string        `json:"order_id"`
	Status         PaymentStatus `json:"status"`
	OrderStatus    OrderStatus   `json:"order_status"`
	EntitlementID  string        `json:"entitlement_id,omitempty"`
	// Replayed - решение уже было принято ранее, повторный вызов ничего не изменил.
	Replayed bool `json:"replayed"`
}
