package tools

import (
	"context"
	"errors"
	"fmt"

	"shopassist/pkg/commerce"
)

// ListAddressesTool lists the user's saved shipping addresses.
type ListAddressesTool struct {
	svc commerce.Service
}

// NewListAddressesTool creates a new address listing tool instance.
func NewListAddressesTool(svc commerce.Service) *ListAddressesTool {
	return &ListAddressesTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *ListAddressesTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolListAddresses,
		Description: "List the user's saved shipping addresses.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	}
}

// Name returns the tool identifier.
func (t *ListAddressesTool) Name() string {
	return ToolListAddresses
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *ListAddressesTool) PromptDocumentation() string {
	return `- **list_addresses** - List saved shipping addresses
  - Parameters: none
  - Requires a logged-in user`
}

// Exec executes the address listing.
func (t *ListAddressesTool) Exec(ctx context.Context, _ map[string]any) (any, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return LoginRequired("view your addresses"), nil
	}

	addrs, err := t.svc.ListAddresses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("address listing failed: %w", err)
	}
	return Success(map[string]any{
		"addresses": addrs,
		"count":     len(addrs),
	}), nil
}

// AddAddressTool saves a new shipping address for the user.
type AddAddressTool struct {
	svc commerce.Service
}

// NewAddAddressTool creates a new add-address tool instance.
func NewAddAddressTool(svc commerce.Service) *AddAddressTool {
	return &AddAddressTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *AddAddressTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolAddAddress,
		Description: "Save a new shipping address for the user.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"label":   {Type: "string", Description: "Short label such as Home or Work"},
				"street":  {Type: "string", Description: "Street and number"},
				"city":    {Type: "string", Description: "City"},
				"zip":     {Type: "string", Description: "Postal code"},
				"country": {Type: "string", Description: "Country"},
			},
			Required: []string{"label", "street", "city", "zip", "country"},
		},
	}
}

// Name returns the tool identifier.
func (t *AddAddressTool) Name() string {
	return ToolAddAddress
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *AddAddressTool) PromptDocumentation() string {
	return `- **add_address** - Save a new shipping address
  - Parameters: label, street, city, zip, country (all strings, all REQUIRED)
  - Ask the user for any missing field before calling
  - Requires a logged-in user`
}

// Exec executes the address creation.
func (t *AddAddressTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return LoginRequired("save an address"), nil
	}

	addr := commerce.Address{UserID: userID}
	var err error
	if addr.Label, err = GetString(args, "label"); err != nil {
		return nil, err
	}
	if addr.Street, err = GetString(args, "street"); err != nil {
		return nil, err
	}
	if addr.City, err = GetString(args, "city"); err != nil {
		return nil, err
	}
	if addr.Zip, err = GetString(args, "zip"); err != nil {
		return nil, err
	}
	if addr.Country, err = GetString(args, "country"); err != nil {
		return nil, err
	}

	saved, err := t.svc.AddAddress(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("address save failed: %w", err)
	}
	return Success(map[string]any{
		"address": saved,
		"message": "Address saved",
	}), nil
}

// ListCouponsTool lists currently valid coupon codes.
type ListCouponsTool struct {
	svc commerce.Service
}

// NewListCouponsTool creates a new coupon listing tool instance.
func NewListCouponsTool(svc commerce.Service) *ListCouponsTool {
	return &ListCouponsTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *ListCouponsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolListCoupons,
		Description: "List currently valid coupon codes and their discounts.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	}
}

// Name returns the tool identifier.
func (t *ListCouponsTool) Name() string {
	return ToolListCoupons
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *ListCouponsTool) PromptDocumentation() string {
	return `- **list_coupons** - List valid coupon codes
  - Parameters: none
  - Works without login`
}

// Exec executes the coupon listing.
func (t *ListCouponsTool) Exec(ctx context.Context, _ map[string]any) (any, error) {
	coupons, err := t.svc.ListCoupons(ctx)
	if err != nil {
		return nil, fmt.Errorf("coupon listing failed: %w", err)
	}
	return Success(map[string]any{
		"coupons": coupons,
		"count":   len(coupons),
	}), nil
}

// ValidateCouponTool checks whether a coupon code is valid.
type ValidateCouponTool struct {
	svc commerce.Service
}

// NewValidateCouponTool creates a new coupon validation tool instance.
func NewValidateCouponTool(svc commerce.Service) *ValidateCouponTool {
	return &ValidateCouponTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *ValidateCouponTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolValidateCoupon,
		Description: "Check whether a coupon code is valid and what discount it gives.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"code": {
					Type:        "string",
					Description: "Coupon code to validate",
				},
			},
			Required: []string{"code"},
		},
	}
}

// Name returns the tool identifier.
func (t *ValidateCouponTool) Name() string {
	return ToolValidateCoupon
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *ValidateCouponTool) PromptDocumentation() string {
	return `- **validate_coupon** - Check a coupon code
  - Parameters: code (string, REQUIRED)
  - Works without login`
}

// Exec executes the coupon validation.
func (t *ValidateCouponTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	code, err := GetString(args, "code")
	if err != nil {
		return nil, err
	}

	coupon, err := t.svc.ValidateCoupon(ctx, code)
	if errors.Is(err, commerce.ErrInvalidCoupon) {
		return Failure(fmt.Sprintf("coupon %q is not valid or has expired", code)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("coupon validation failed: %w", err)
	}
	return Success(map[string]any{"coupon": coupon}), nil
}

// AddToWishlistTool saves a product to the user's wishlist.
type AddToWishlistTool struct {
	svc commerce.Service
}

// NewAddToWishlistTool creates a new wishlist add tool instance.
func NewAddToWishlistTool(svc commerce.Service) *AddToWishlistTool {
	return &AddToWishlistTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *AddToWishlistTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolAddToWishlist,
		Description: "Save a product to the user's wishlist for later.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"product_id": {
					Type:        "string",
					Description: "Product id to save",
				},
			},
			Required: []string{"product_id"},
		},
	}
}

// Name returns the tool identifier.
func (t *AddToWishlistTool) Name() string {
	return ToolAddToWishlist
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *AddToWishlistTool) PromptDocumentation() string {
	return `- **add_to_wishlist** - Save a product for later
  - Parameters: product_id (string, REQUIRED)
  - Requires a logged-in user`
}

// Exec executes the wishlist addition.
func (t *AddToWishlistTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return LoginRequired("use your wishlist"), nil
	}

	productID, err := GetString(args, "product_id")
	if err != nil {
		return nil, err
	}

	if err := t.svc.AddToWishlist(ctx, userID, productID); err != nil {
		if errors.Is(err, commerce.ErrNotFound) {
			return Failure(fmt.Sprintf("no product with id %q", productID)), nil
		}
		return nil, fmt.Errorf("wishlist save failed: %w", err)
	}
	return Success(map[string]any{"message": "Saved to wishlist"}), nil
}

// ViewWishlistTool lists the user's wishlist.
type ViewWishlistTool struct {
	svc commerce.Service
}

// NewViewWishlistTool creates a new wishlist view tool instance.
func NewViewWishlistTool(svc commerce.Service) *ViewWishlistTool {
	return &ViewWishlistTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *ViewWishlistTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolViewWishlist,
		Description: "Show the products saved in the user's wishlist.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	}
}

// Name returns the tool identifier.
func (t *ViewWishlistTool) Name() string {
	return ToolViewWishlist
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *ViewWishlistTool) PromptDocumentation() string {
	return `- **view_wishlist** - Show the user's wishlist
  - Parameters: none
  - Requires a logged-in user`
}

// Exec executes the wishlist view.
func (t *ViewWishlistTool) Exec(ctx context.Context, _ map[string]any) (any, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return LoginRequired("view your wishlist"), nil
	}

	products, err := t.svc.GetWishlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("wishlist lookup failed: %w", err)
	}
	return Success(map[string]any{
		"products": products,
		"count":    len(products),
	}), nil
}
