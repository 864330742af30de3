package tools

import (
	"context"
	"errors"
	"fmt"

	"shopassist/pkg/commerce"
)

// ViewCartTool returns the authenticated user's cart.
type ViewCartTool struct {
	svc commerce.Service
}

// NewViewCartTool creates a new cart view tool instance.
func NewViewCartTool(svc commerce.Service) *ViewCartTool {
	return &ViewCartTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *ViewCartTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolViewCart,
		Description: "Show the current contents and total of the user's shopping cart.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	}
}

// Name returns the tool identifier.
func (t *ViewCartTool) Name() string {
	return ToolViewCart
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *ViewCartTool) PromptDocumentation() string {
	return `- **view_cart** - Show the user's cart
  - Parameters: none
  - Requires a logged-in user; relay the login message if one is returned
  - Report exactly the items and total the tool returns, never from memory`
}

// Exec executes the cart view.
func (t *ViewCartTool) Exec(ctx context.Context, _ map[string]any) (any, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return LoginRequired("view your cart"), nil
	}

	cart, err := t.svc.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("cart lookup failed: %w", err)
	}
	return Success(map[string]any{
		"cart":       cart,
		"item_count": len(cart.Items),
	}), nil
}

// AddToCartTool adds a product to the cart.
type AddToCartTool struct {
	svc commerce.Service
}

// NewAddToCartTool creates a new add-to-cart tool instance.
func NewAddToCartTool(svc commerce.Service) *AddToCartTool {
	return &AddToCartTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *AddToCartTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolAddToCart,
		Description: "Add a product to the user's cart by product id.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"product_id": {
					Type:        "string",
					Description: "Product id as returned by search_products",
				},
				"quantity": {
					Type:        "integer",
					Description: "Quantity to add (default 1)",
				},
			},
			Required: []string{"product_id"},
		},
	}
}

// Name returns the tool identifier.
func (t *AddToCartTool) Name() string {
	return ToolAddToCart
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *AddToCartTool) PromptDocumentation() string {
	return `- **add_to_cart** - Add a product to the cart
  - Parameters: product_id (string, REQUIRED), quantity (integer, optional, default 1)
  - Look up the product id with search_products first if the user gave only a name
  - Requires a logged-in user`
}

// Exec executes the cart addition.
func (t *AddToCartTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return LoginRequired("add items to your cart"), nil
	}

	productID, err := GetString(args, "product_id")
	if err != nil {
		return nil, err
	}
	quantity := GetOptionalInt(args, "quantity", 1)
	if quantity < 1 {
		return Failure("quantity must be at least 1"), nil
	}

	cart, err := t.svc.AddToCart(ctx, userID, productID, quantity)
	switch {
	case errors.Is(err, commerce.ErrNotFound):
		return Failure(fmt.Sprintf("no product with id %q", productID)), nil
	case errors.Is(err, commerce.ErrOutOfStock):
		return Failure("not enough stock for that quantity"), nil
	case err != nil:
		return nil, fmt.Errorf("add to cart failed: %w", err)
	}
	return Success(map[string]any{
		"cart":    cart,
		"message": "Item added to cart",
	}), nil
}

// RemoveFromCartTool removes a product from the cart.
type RemoveFromCartTool struct {
	svc commerce.Service
}

// NewRemoveFromCartTool creates a new remove-from-cart tool instance.
func NewRemoveFromCartTool(svc commerce.Service) *RemoveFromCartTool {
	return &RemoveFromCartTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *RemoveFromCartTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolRemoveFromCart,
		Description: "Remove a product from the user's cart.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"product_id": {
					Type:        "string",
					Description: "Product id of the cart line to remove",
				},
			},
			Required: []string{"product_id"},
		},
	}
}

// Name returns the tool identifier.
func (t *RemoveFromCartTool) Name() string {
	return ToolRemoveFromCart
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *RemoveFromCartTool) PromptDocumentation() string {
	return `- **remove_from_cart** - Remove a product from the cart
  - Parameters: product_id (string, REQUIRED)
  - Requires a logged-in user`
}

// Exec executes the cart removal.
func (t *RemoveFromCartTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return LoginRequired("modify your cart"), nil
	}

	productID, err := GetString(args, "product_id")
	if err != nil {
		return nil, err
	}

	cart, err := t.svc.RemoveFromCart(ctx, userID, productID)
	if errors.Is(err, commerce.ErrNotFound) {
		return Failure("that product is not in the cart"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("remove from cart failed: %w", err)
	}
	return Success(map[string]any{
		"cart":    cart,
		"message": "Item removed from cart",
	}), nil
}

// UpdateCartItemTool changes the quantity of a cart line.
type UpdateCartItemTool struct {
	svc commerce.Service
}

// NewUpdateCartItemTool creates a new cart update tool instance.
func NewUpdateCartItemTool(svc commerce.Service) *UpdateCartItemTool {
	return &UpdateCartItemTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *UpdateCartItemTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolUpdateCartItem,
		Description: "Set the quantity of a product already in the user's cart. Quantity 0 removes the line.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"product_id": {
					Type:        "string",
					Description: "Product id of the cart line to update",
				},
				"quantity": {
					Type:        "integer",
					Description: "New quantity; 0 removes the item",
				},
			},
			Required: []string{"product_id", "quantity"},
		},
	}
}

// Name returns the tool identifier.
func (t *UpdateCartItemTool) Name() string {
	return ToolUpdateCartItem
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *UpdateCartItemTool) PromptDocumentation() string {
	return `- **update_cart_item** - Change the quantity of a cart line
  - Parameters: product_id (string, REQUIRED), quantity (integer, REQUIRED, 0 removes the line)
  - Requires a logged-in user`
}

// Exec executes the quantity update.
func (t *UpdateCartItemTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return LoginRequired("modify your cart"), nil
	}

	productID, err := GetString(args, "product_id")
	if err != nil {
		return nil, err
	}
	quantity, err := GetInt(args, "quantity")
	if err != nil {
		return nil, err
	}
	if quantity < 0 {
		return Failure("quantity cannot be negative"), nil
	}

	cart, err := t.svc.UpdateCartItem(ctx, userID, productID, quantity)
	switch {
	case errors.Is(err, commerce.ErrNotFound):
		return Failure("that product is not in the cart"), nil
	case errors.Is(err, commerce.ErrOutOfStock):
		return Failure("not enough stock for that quantity"), nil
	case err != nil:
		return nil, fmt.Errorf("cart update failed: %w", err)
	}
	return Success(map[string]any{
		"cart":    cart,
		"message": "Cart updated",
	}), nil
}

// ClearCartTool empties the user's cart. Destructive, so the result carries
// an approval flag for the review gate.
type ClearCartTool struct {
	svc commerce.Service
}

// NewClearCartTool creates a new clear-cart tool instance.
func NewClearCartTool(svc commerce.Service) *ClearCartTool {
	return &ClearCartTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *ClearCartTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolClearCart,
		Description: "Remove every item from the user's cart. Only use when the user explicitly asks to empty the cart.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	}
}

// Name returns the tool identifier.
func (t *ClearCartTool) Name() string {
	return ToolClearCart
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *ClearCartTool) PromptDocumentation() string {
	return `- **clear_cart** - Empty the entire cart
  - Parameters: none
  - Only call when the user explicitly asks to empty or clear the cart
  - Requires a logged-in user`
}

// Exec executes the cart clear.
func (t *ClearCartTool) Exec(ctx context.Context, _ map[string]any) (any, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return LoginRequired("clear your cart"), nil
	}

	if err := t.svc.ClearCart(ctx, userID); err != nil {
		return nil, fmt.Errorf("clear cart failed: %w", err)
	}
	return Success(map[string]any{
		"message":        "Cart cleared",
		"needs_approval": true,
	}), nil
}
