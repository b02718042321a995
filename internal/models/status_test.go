package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []OrderStatus{OrderPending, OrderSubmitted, OrderPaid, OrderRejected, OrderCancelled, OrderExpired}
	allowed := map[[2]OrderStatus]bool{
		{OrderPending, OrderSubmitted}:  true,
		{OrderPending, OrderExpired}:    true,
		{OrderSubmitted, OrderPaid}:     true,
		{OrderSubmitted, OrderRejected}: true,
		{OrderRejected, OrderSubmitted}: true,
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				assert.Equal(t, allowed[[2]OrderStatus{from, to}], CanTransition(from, to))
			})
		}
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	assert.False(t, CanTransition("unknown", OrderSubmitted))
	assert.False(t, CanTransition(OrderPending, "unknown"))
}

func TestOrderStatus_AcceptsSlip(t *testing.T) {
	assert.True(t, OrderPending.AcceptsSlip())
	assert.True(t, OrderRejected.AcceptsSlip())
	assert.False(t, OrderSubmitted.AcceptsSlip())
	assert.False(t, OrderPaid.AcceptsSlip())
	assert.False(t, OrderExpired.AcceptsSlip())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "รอชำระเงิน", OrderPending.Label())
	assert.Equal(t, "ชำระแล้ว", OrderPaid.Label())
	assert.Equal(t, "รอชำระเงิน", OrderStatus("").Label())
	assert.Equal(t, "อนุมัติแล้ว", PaymentVerified.Label())
	assert.Equal(t, "รอตรวจสอบ", PaymentStatus("").Label())
}

func TestProfile_IsAdmin(t *testing.T) {
	admin := RoleAdmin
	other := "editor"

	assert.True(t, (&Profile{Role: &admin}).IsAdmin())
	assert.False(t, (&Profile{Role: &other}).IsAdmin())
	assert.False(t, (&Profile{}).IsAdmin())
	var nilProfile *Profile
	assert.False(t, nilProfile.IsAdmin())
}
