package models

// OrderStatus - статус заказа.
type OrderStatus string

// Статусы заказа.
const (
	OrderPending   OrderStatus = "pending"
	OrderSubmitted OrderStatus = "submitted"
	OrderPaid      OrderStatus = "paid"
	OrderRejected  OrderStatus = "rejected"
	OrderCancelled OrderStatus = "cancelled"
	OrderExpired   OrderStatus = "expired"
)

// PaymentStatus - статус уведомления об оплате.
type PaymentStatus string

// Статусы уведомления об оплате.
const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderSubmitted: true, OrderExpired: true},
	OrderSubmitted: {OrderPaid: true, OrderRejected: true},
	OrderRejected:  {OrderSubmitted: true},
	OrderPaid:      {},
	OrderCancelled: {},
	OrderExpired:   {},
}

// CanTransition проверяет, допустим ли переход заказа из from в to.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// AcceptsSlip сообщает, можно ли загрузить слип для заказа в этом статусе.
func (s OrderStatus) AcceptsSlip() bool {
	return CanTransition(s, OrderSubmitted)
}

var orderLabels = map[OrderStatus]string{
	OrderPending:   "รอชำระเงิน",
	OrderSubmitted: "รอตรวจสอบ",
	OrderPaid:      "ชำระแล้ว",
	OrderRejected:  "ถูกปฏิเสธ",
	OrderCancelled: "ยกเลิก",
	OrderExpired:   "หมดอายุ",
}

// Label возвращает тайскую подпись статуса заказа.
func (s OrderStatus) Label() string {
	if l, ok := orderLabels[s]; ok {
		return l
	}
	return orderLabels[OrderPending]
}

var paymentLabels = map[PaymentStatus]string{
	PaymentPending:  "รอตรวจสอบ",
	PaymentVerified: "อนุมัติแล้ว",
	PaymentRejected: "ปฏิเสธ",
}

// Label возвращает тайскую подпись статуса уведомления.
func (s PaymentStatus) Label() string {
	if l, ok := paymentLabels[s]; ok {
		return l
	}
	return paymentLabels[PaymentPending]
}
