package commerce

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *SQLiteService {
	t.Helper()
	svc, err := Open(filepath.Join(t.TempDir(), "commerce.db"))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	require.NoError(t, svc.Seed(context.Background()))
	return svc
}

func TestSeedIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx))
	products, err := svc.SearchProducts(ctx, "corsair", 50)
	require.NoError(t, err)
	assert.NotEmpty(t, products)
}

func TestProductsByCategoryLimit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ram, err := svc.ProductsByCategory(ctx, "ram", 5)
	require.NoError(t, err)
	require.NotEmpty(t, ram)
	assert.LessOrEqual(t, len(ram), 5)
	for _, p := range ram {
		assert.Equal(t, "ram", p.Category)
	}

	none, err := svc.ProductsByCategory(ctx, "no-such-category", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCartLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID := "user-1"

	cart, err := svc.AddToCart(ctx, userID, "ram-corsair-16", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.InDelta(t, 2*64.99, cart.Total, 0.001)

	// Adding the same product accumulates quantity.
	cart, err = svc.AddToCart(ctx, userID, "ram-corsair-16", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	cart, err = svc.UpdateCartItem(ctx, userID, "ram-corsair-16", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	cart, err = svc.RemoveFromCart(ctx, userID, "ram-corsair-16")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = svc.RemoveFromCart(ctx, userID, "ram-corsair-16")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddToCartStockCheck(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "user-1", "gpu-rtx-4070", 10000)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = svc.AddToCart(ctx, "user-1", "missing-product", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateOrderAndTracking(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID := "user-1"

	_, err := svc.CreateOrder(ctx, userID, "", "")
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.AddToCart(ctx, userID, "cpu-ryzen-7600", 1)
	require.NoError(t, err)

	order, err := svc.CreateOrder(ctx, userID, "addr-1", "SAVE10")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(order.TrackingCode, "TH-"))
	assert.InDelta(t, 219.99*0.9, order.Total, 0.001)
	assert.Equal(t, OrderStatusPlaced, order.Status)

	// Cart is cleared after ordering.
	cart, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	tracked, err := svc.TrackOrder(ctx, order.TrackingCode)
	require.NoError(t, err)
	assert.Equal(t, order.ID, tracked.ID)
	require.Len(t, tracked.Items, 1)
	assert.Equal(t, "cpu-ryzen-7600", tracked.Items[0].ProductID)

	history, err := svc.OrderHistory(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	_, err = svc.TrackOrder(ctx, "TH-DOESNOTEXIST")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCategories(t *testing.T) {
	svc := newTestService(t)

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Contains(t, categories, "ram")
	assert.Contains(t, categories, "gpu")
	assert.Contains(t, categories, "accessories")
	assert.Len(t, categories, 9)
}

func TestPriceRange(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	gpus, err := svc.GetPriceRange(ctx, "gpu")
	require.NoError(t, err)
	assert.InDelta(t, 499.99, gpus.Min, 0.001)
	assert.InDelta(t, 599.99, gpus.Max, 0.001)
	assert.Equal(t, 2, gpus.Count)

	all, err := svc.GetPriceRange(ctx, "")
	require.NoError(t, err)
	assert.Greater(t, all.Count, gpus.Count)
	assert.GreaterOrEqual(t, all.Max, gpus.Max)

	_, err = svc.GetPriceRange(ctx, "no-such-category")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLowStockProducts(t *testing.T) {
	svc := newTestService(t)

	low, err := svc.LowStockProducts(context.Background(), 15)
	require.NoError(t, err)
	require.NotEmpty(t, low)
	for _, p := range low {
		assert.LessOrEqual(t, p.Stock, 15)
	}
	// Ordered by stock, scarcest first.
	assert.Equal(t, "gpu-rtx-4070", low[0].ID)
}

func TestCancelOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID := "user-1"

	_, err := svc.AddToCart(ctx, userID, "cpu-ryzen-7600", 1)
	require.NoError(t, err)
	order, err := svc.CreateOrder(ctx, userID, "", "")
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(ctx, userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, cancelled.Status)

	// Already cancelled; no second cancellation.
	_, err = svc.CancelOrder(ctx, userID, order.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)

	// Another user cannot cancel someone else's order.
	_, err = svc.CancelOrder(ctx, "user-2", order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CancelOrder(ctx, userID, "no-such-order")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCouponValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	coupon, err := svc.ValidateCoupon(ctx, "save10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", coupon.Code)
	assert.InDelta(t, 10.0, coupon.PercentOff, 0.001)

	_, err = svc.ValidateCoupon(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrInvalidCoupon)

	require.NoError(t, svc.AddCoupon(ctx, Coupon{
		Code:       "EXPIRED",
		PercentOff: 50,
		ExpiresAt:  time.Now().UTC().Add(-time.Hour),
	}))
	_, err = svc.ValidateCoupon(ctx, "EXPIRED")
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestApplyCouponFloorsAtZero(t *testing.T) {
	total := applyCoupon(10, Coupon{AmountOff: 25})
	assert.Zero(t, total)
}

func TestAddresses(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	addr, err := svc.AddAddress(ctx, Address{
		UserID: "user-1", Label: "Home", Street: "1 Main St", City: "Austin", Zip: "78701", Country: "US",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, addr.ID)

	addrs, err := svc.ListAddresses(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "Home", addrs[0].Label)
}

func TestWishlist(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddToWishlist(ctx, "user-1", "gpu-rx-7800"))
	// Duplicate adds are ignored.
	require.NoError(t, svc.AddToWishlist(ctx, "user-1", "gpu-rx-7800"))

	wishlist, err := svc.GetWishlist(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, wishlist, 1)
	assert.Equal(t, "gpu-rx-7800", wishlist[0].ID)
}

func TestBuildLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	build, err := svc.StartBuild(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, BuildStatusInProgress, build.Status)

	build, err = svc.AddBuildComponent(ctx, build.ID, "ram", "ram-corsair-16")
	require.NoError(t, err)
	build, err = svc.AddBuildComponent(ctx, build.ID, "cpu", "cpu-ryzen-7600")
	require.NoError(t, err)
	assert.Len(t, build.Components, 2)

	cart, err := svc.SaveBuildToCart(ctx, build.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)

	saved, err := svc.GetBuild(ctx, build.ID)
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSaved, saved.Status)
}

func TestUserAuth(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "Ada@Example.com", "Ada", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	authed, err := svc.Authenticate(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredential)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "hunter22")
	assert.True(t, errors.Is(err, ErrBadCredential))
}
