// Package commerce provides the e-commerce capability provider: catalog,
// carts, orders, addresses, coupons, wishlists, PC builds, and users.
package commerce

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by capability operations.
var (
	ErrNotFound       = errors.New("not found")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrOutOfStock     = errors.New("insufficient stock")
	ErrInvalidCoupon  = errors.New("invalid or expired coupon")
	ErrBadCredential  = errors.New("invalid email or password")
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)

// Product is a catalog entry.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

// PriceRange summarizes catalog pricing, optionally for one category.
type PriceRange struct {
	Category string  `json:"category,omitempty"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
}

// CartItem is a product line in a cart or order.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Cart is a user's active cart.
type Cart struct {
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"items"`
	Total  float64    `json:"total"`
}

// Address is a saved shipping address.
type Address struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Label   string `json:"label"`
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Coupon is a discount code. Either PercentOff or AmountOff is set.
type Coupon struct {
	Code       string    `json:"code"`
	PercentOff float64   `json:"percent_off,omitempty"`
	AmountOff  float64   `json:"amount_off,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Order statuses. Only placed orders can still be cancelled.
const (
	OrderStatusPlaced    = "placed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is a placed order with its tracking code.
type Order struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Status       string     `json:"status"`
	TrackingCode string     `json:"tracking_code"`
	Items        []CartItem `json:"items"`
	Total        float64    `json:"total"`
	CouponCode   string     `json:"coupon_code,omitempty"`
	AddressID    string     `json:"address_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Build statuses.
const (
	BuildStatusInProgress = "in_progress"
	BuildStatusSaved      = "saved"
)

// Build is a PC build in progress or saved to cart.
type Build struct {
	ID         string             `json:"id"`
	UserID     string             `json:"user_id"`
	Components map[string]Product `json:"components"` // keyed by category
	Status     string             `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
}

// User is a registered customer record.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Service is the capability provider contract consumed by tools and flows.
type Service interface {
	// Catalog.
	SearchProducts(ctx context.Context, query string, limit int) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	ProductsByCategory(ctx context.Context, category string, limit int) ([]Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetPriceRange(ctx context.Context, category string) (PriceRange, error)
	LowStockProducts(ctx context.Context, threshold int) ([]Product, error)

	// Cart.
	GetCart(ctx context.Context, userID string) (Cart, error)
	AddToCart(ctx context.Context, userID, productID string, quantity int) (Cart, error)
	RemoveFromCart(ctx context.Context, userID, productID string) (Cart, error)
	UpdateCartItem(ctx context.Context, userID, productID string, quantity int) (Cart, error)
	ClearCart(ctx context.Context, userID string) error

	// Orders.
	CreateOrder(ctx context.Context, userID, addressID, couponCode string) (Order, error)
	TrackOrder(ctx context.Context, trackingCode string) (Order, error)
	OrderHistory(ctx context.Context, userID string) ([]Order, error)
	CancelOrder(ctx context.Context, userID, orderID string) (Order, error)

	// Addresses.
	ListAddresses(ctx context.Context, userID string) ([]Address, error)
	AddAddress(ctx context.Context, addr Address) (Address, error)

	// Coupons.
	ListCoupons(ctx context.Context) ([]Coupon, error)
	ValidateCoupon(ctx context.Context, code string) (Coupon, error)

	// Wishlist.
	AddToWishlist(ctx context.Context, userID, productID string) error
	GetWishlist(ctx context.Context, userID string) ([]Product, error)

	// PC builds.
	StartBuild(ctx context.Context, userID string) (Build, error)
	AddBuildComponent(ctx context.Context, buildID, category, productID string) (Build, error)
	GetBuild(ctx context.Context, buildID string) (Build, error)
	SaveBuildToCart(ctx context.Context, buildID string) (Cart, error)

	// Users.
	RegisterUser(ctx context.Context, email, name, password string) (User, error)
	Authenticate(ctx context.Context, email, password string) (User, error)
}
