package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	regular := Product{Price: 1200, SalePrice: 800, IsOnSale: false}
	assert.Equal(t, int64(1200), regular.EffectivePrice())

	onSale := Product{Price: 1200, SalePrice: 800, IsOnSale: true}
	assert.Equal(t, int64(800), onSale.EffectivePrice())

	// A sale flag without a sale price falls back to the regular price.
	flaggedOnly := Product{Price: 1200, IsOnSale: true}
	assert.Equal(t, int64(1200), flaggedOnly.EffectivePrice())
}

func TestCartTotalsRecomputedFromItems(t *testing.T) {
	cart := &Cart{Items: []CartItem{
		{ProductID: 1, Quantity: 2, Price: 1000},
		{ProductID: 2, Quantity: 1, Price: 1200, SalePrice: 800, IsOnSale: true},
	}}

	assert.Equal(t, 3, cart.TotalQuantity())
	assert.Equal(t, int64(2*1000+800), cart.TotalAmount())

	// Mutating the items directly must be reflected with no cached state.
	cart.Items[0].Quantity = 5
	assert.Equal(t, 6, cart.TotalQuantity())
	assert.Equal(t, int64(5*1000+800), cart.TotalAmount())

	cart.Items = cart.Items[:1]
	assert.Equal(t, 5, cart.TotalQuantity())
	assert.Equal(t, int64(5*1000), cart.TotalAmount())
}

func TestCartRemainingAddable(t *testing.T) {
	p := &Product{ID: 7, CountInStock: 5}

	empty := &Cart{}
	assert.Equal(t, 5, empty.RemainingAddable(p))

	cart := &Cart{Items: []CartItem{{ProductID: 7, Quantity: 3}}}
	assert.Equal(t, 2, cart.RemainingAddable(p))

	// Stock shrank below the carted quantity; floor at zero.
	p.CountInStock = 2
	assert.Equal(t, 0, cart.RemainingAddable(p))
}

func TestWishlistContains(t *testing.T) {
	wl := &Wishlist{Items: []WishlistItem{{ProductID: 1}, {ProductID: 2}}}
	assert.True(t, wl.Contains(2))
	assert.False(t, wl.Contains(3))
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, ValidPaymentMethod(PaymentMethodCOD))
	assert.True(t, ValidPaymentMethod(PaymentMethodBankTransfer))
	assert.True(t, ValidPaymentMethod(PaymentMethodCard))
	assert.False(t, ValidPaymentMethod("PAYPAL"))
	assert.False(t, ValidPaymentMethod(""))
}

func TestValidStatusTransition(t *testing.T) {
	// The forward progression, one step at a time.
	assert.True(t, ValidStatusTransition(OrderStatusPending, OrderStatusConfirmed))
	assert.True(t, ValidStatusTransition(OrderStatusConfirmed, OrderStatusProcessing))
	assert.True(t, ValidStatusTransition(OrderStatusProcessing, OrderStatusShipped))
	assert.True(t, ValidStatusTransition(OrderStatusShipped, OrderStatusDelivered))

	// No skipping and no going back.
	assert.False(t, ValidStatusTransition(OrderStatusPending, OrderStatusProcessing))
	assert.False(t, ValidStatusTransition(OrderStatusShipped, OrderStatusConfirmed))

	// Cancellation from any non-terminal state.
	assert.True(t, ValidStatusTransition(OrderStatusPending, OrderStatusCancelled))
	assert.True(t, ValidStatusTransition(OrderStatusShipped, OrderStatusCancelled))

	// Terminal states stay terminal.
	assert.False(t, ValidStatusTransition(OrderStatusDelivered, OrderStatusCancelled))
	assert.False(t, ValidStatusTransition(OrderStatusCancelled, OrderStatusPending))

	assert.False(t, ValidStatusTransition("BOGUS", OrderStatusConfirmed))
	assert.False(t, ValidStatusTransition(OrderStatusPending, "BOGUS"))
}
