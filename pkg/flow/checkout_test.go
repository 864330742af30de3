package flow

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopassist/pkg/commerce"
	"shopassist/pkg/logx"
)

func newTestCommerce(t *testing.T) *commerce.SQLiteService {
	t.Helper()
	svc, err := commerce.Open(filepath.Join(t.TempDir(), "commerce.db"))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	require.NoError(t, svc.Seed(context.Background()))
	return svc
}

func seedCheckoutUser(t *testing.T, svc *commerce.SQLiteService, userID string) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.AddToCart(ctx, userID, "ram-corsair-16", 1)
	require.NoError(t, err)
	_, err = svc.AddAddress(ctx, commerce.Address{
		UserID: userID, Label: "Home", Street: "1 Main St", City: "Austin", Zip: "78701", Country: "US",
	})
	require.NoError(t, err)
	_, err = svc.AddAddress(ctx, commerce.Address{
		UserID: userID, Label: "Work", Street: "9 Office Rd", City: "Dallas", Zip: "75001", Country: "US",
	})
	require.NoError(t, err)
}

func TestCheckoutEmptyCartAbortsEntry(t *testing.T) {
	svc := newTestCommerce(t)
	machine := NewCheckout(svc, logx.NewLogger("test"))

	var meta Metadata
	reply, err := machine.Enter(context.Background(), "user-1", &meta)
	require.NoError(t, err)
	assert.Contains(t, reply, "cart is empty")
	assert.Equal(t, KindNone, meta.Active, "flow must stay inactive")
}

func TestCheckoutNoAddressesAbortsEntry(t *testing.T) {
	svc := newTestCommerce(t)
	ctx := context.Background()
	_, err := svc.AddToCart(ctx, "user-1", "ram-corsair-16", 1)
	require.NoError(t, err)

	machine := NewCheckout(svc, logx.NewLogger("test"))
	var meta Metadata
	reply, err := machine.Enter(ctx, "user-1", &meta)
	require.NoError(t, err)
	assert.Contains(t, reply, "no saved shipping addresses")
	assert.Equal(t, KindNone, meta.Active, "flow resets so add_address stays reachable")
	assert.Empty(t, meta.CheckoutStep)

	// The next message routes to the general path, not a wedged shipping step.
	assert.Equal(t, DecisionGeneral, Route(&meta, "add address Home, 1 Main St, Austin, 78701, US"))
}

func TestCheckoutHappyPath(t *testing.T) {
	svc := newTestCommerce(t)
	ctx := context.Background()
	seedCheckoutUser(t, svc, "user-1")

	machine := NewCheckout(svc, logx.NewLogger("test"))
	var meta Metadata

	// Entry renders the address menu; persisted step answers the next message.
	reply, err := machine.Enter(ctx, "user-1", &meta)
	require.NoError(t, err)
	assert.Contains(t, reply, "1. Home")
	assert.Contains(t, reply, "2. Work")
	assert.Equal(t, CheckoutStepShipping, meta.CheckoutStep)

	// Selecting an address immediately renders the coupon menu.
	reply, err = machine.Handle(ctx, "user-1", &meta, "1")
	require.NoError(t, err)
	assert.Contains(t, reply, "SAVE10")
	assert.Equal(t, CheckoutStepCoupon, meta.CheckoutStep)
	assert.NotEmpty(t, meta.Checkout.AddressID)

	// Selecting a coupon immediately renders the review.
	reply, err = machine.Handle(ctx, "user-1", &meta, "1")
	require.NoError(t, err)
	assert.Contains(t, reply, "Order review")
	assert.Equal(t, CheckoutStepReview, meta.CheckoutStep)
	assert.NotEmpty(t, meta.Checkout.CouponCode)

	// Confirming places the order and resets the flow.
	reply, err = machine.Handle(ctx, "user-1", &meta, "yes")
	require.NoError(t, err)
	assert.Contains(t, reply, "TH-")
	assert.Equal(t, KindNone, meta.Active)

	history, err := svc.OrderHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "SAVE10", history[0].CouponCode)
}

func TestCheckoutSkipCouponByCode(t *testing.T) {
	svc := newTestCommerce(t)
	ctx := context.Background()
	seedCheckoutUser(t, svc, "user-1")

	machine := NewCheckout(svc, logx.NewLogger("test"))
	var meta Metadata
	_, err := machine.Enter(ctx, "user-1", &meta)
	require.NoError(t, err)

	_, err = machine.Handle(ctx, "user-1", &meta, "use address 2")
	require.NoError(t, err)
	assert.Contains(t, meta.Checkout.AddressLabel, "Work")

	reply, err := machine.Handle(ctx, "user-1", &meta, "apply coupon FLAT25")
	require.NoError(t, err)
	assert.Contains(t, reply, "FLAT25")
	assert.Equal(t, "FLAT25", meta.Checkout.CouponCode)
	assert.Equal(t, CheckoutStepReview, meta.CheckoutStep)
}

func TestCheckoutSkipCoupon(t *testing.T) {
	svc := newTestCommerce(t)
	ctx := context.Background()
	seedCheckoutUser(t, svc, "user-1")

	machine := NewCheckout(svc, logx.NewLogger("test"))
	var meta Metadata
	_, err := machine.Enter(ctx, "user-1", &meta)
	require.NoError(t, err)
	_, err = machine.Handle(ctx, "user-1", &meta, "1")
	require.NoError(t, err)

	reply, err := machine.Handle(ctx, "user-1", &meta, "skip")
	require.NoError(t, err)
	assert.Contains(t, reply, "Coupon: none")
	assert.Empty(t, meta.Checkout.CouponCode)
}

func TestCheckoutInvalidSelectionReRenders(t *testing.T) {
	svc := newTestCommerce(t)
	ctx := context.Background()
	seedCheckoutUser(t, svc, "user-1")

	machine := NewCheckout(svc, logx.NewLogger("test"))
	var meta Metadata
	_, err := machine.Enter(ctx, "user-1", &meta)
	require.NoError(t, err)

	reply, err := machine.Handle(ctx, "user-1", &meta, "99")
	require.NoError(t, err)
	assert.Contains(t, reply, "pick an address by number")
	assert.Equal(t, CheckoutStepShipping, meta.CheckoutStep, "step does not advance on bad input")

	_, err = machine.Handle(ctx, "user-1", &meta, "1")
	require.NoError(t, err)

	reply, err = machine.Handle(ctx, "user-1", &meta, "banana")
	require.NoError(t, err)
	assert.True(t, strings.Contains(reply, "coupon"), "re-renders the coupon menu")
	assert.Equal(t, CheckoutStepCoupon, meta.CheckoutStep)
}

func TestCheckoutCancelFromReview(t *testing.T) {
	svc := newTestCommerce(t)
	ctx := context.Background()
	seedCheckoutUser(t, svc, "user-1")

	machine := NewCheckout(svc, logx.NewLogger("test"))
	var meta Metadata
	_, err := machine.Enter(ctx, "user-1", &meta)
	require.NoError(t, err)
	_, err = machine.Handle(ctx, "user-1", &meta, "1")
	require.NoError(t, err)
	_, err = machine.Handle(ctx, "user-1", &meta, "skip")
	require.NoError(t, err)

	reply, err := machine.Handle(ctx, "user-1", &meta, "cancel")
	require.NoError(t, err)
	assert.Contains(t, reply, "cancelled")
	assert.Equal(t, KindNone, meta.Active)

	// Cart is untouched after cancel.
	cart, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, cart.Items)
}

func TestCheckoutUnexpectedInputAtReview(t *testing.T) {
	svc := newTestCommerce(t)
	ctx := context.Background()
	seedCheckoutUser(t, svc, "user-1")

	machine := NewCheckout(svc, logx.NewLogger("test"))
	var meta Metadata
	_, err := machine.Enter(ctx, "user-1", &meta)
	require.NoError(t, err)
	_, err = machine.Handle(ctx, "user-1", &meta, "1")
	require.NoError(t, err)
	_, err = machine.Handle(ctx, "user-1", &meta, "skip")
	require.NoError(t, err)

	reply, err := machine.Handle(ctx, "user-1", &meta, "hmm let me think")
	require.NoError(t, err)
	assert.Contains(t, reply, "Reply \"yes\"")
	assert.Equal(t, CheckoutStepReview, meta.CheckoutStep)
}
