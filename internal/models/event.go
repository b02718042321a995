package models

import "time"

// Типы событий об оплате, публикуемых в RabbitMQ. Совпадают с routing key.
const (
	EventPaymentSubmitted = "payment.submitted"
	EventPaymentApproved  = "payment.approved"
	EventPaymentRejected  = "payment.rejected"
)

// PaymentEvent - сообщение для сервиса уведомлений покупателя.
type PaymentEvent struct {
	Event          string    `json:"event"`
	OrderID        string    `json:"order_id"`
	NotificationID string    `json:"notification_id"`
	UserEmail      string    `json:"user_email"`
	DisplayName    string    `json:"display_name"`
	ProductTitle   string    `json:"product_title"`
	Amount         int64     `json:"amount"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
