package tools

// Tool name constants - use these instead of magic strings to prevent typos
// and enable compile-time checking.
const (
	// Catalog tools.
	ToolSearchProducts     = "search_products"
	ToolGetProduct         = "get_product"
	ToolProductsByCategory = "products_by_category"
	ToolListCategories     = "list_categories"
	ToolGetPriceRange      = "get_price_range"
	ToolLowStockProducts   = "get_low_stock_products"

	// Cart tools.
	ToolViewCart       = "view_cart"
	ToolAddToCart      = "add_to_cart"
	ToolRemoveFromCart = "remove_from_cart"
	ToolUpdateCartItem = "update_cart_item"
	ToolClearCart      = "clear_cart"

	// Order tools.
	ToolPlaceOrder   = "place_order"
	ToolTrackOrder   = "track_order"
	ToolOrderHistory = "order_history"
	ToolCancelOrder  = "cancel_order"

	// Account tools.
	ToolListAddresses  = "list_addresses"
	ToolAddAddress     = "add_address"
	ToolListCoupons    = "list_coupons"
	ToolValidateCoupon = "validate_coupon"
	ToolAddToWishlist  = "add_to_wishlist"
	ToolViewWishlist   = "view_wishlist"

	// Knowledge tools.
	ToolSearchKnowledge = "search_knowledge"
)

// CartTools names the tools whose results describe the user's cart. The
// reasoning loop snapshots these results into session context so later
// answers about the cart stay grounded in real tool output.
//
//nolint:gochecknoglobals // Shared lookup table.
var CartTools = []string{
	ToolViewCart,
	ToolAddToCart,
	ToolRemoveFromCart,
	ToolUpdateCartItem,
	ToolClearCart,
}

// IsCartTool reports whether name is one of the cart tools.
func IsCartTool(name string) bool {
	for _, t := range CartTools {
		if t == name {
			return true
		}
	}
	return false
}
