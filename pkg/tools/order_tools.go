package tools

import (
	"context"
	"errors"
	"fmt"

	"shopassist/pkg/commerce"
)

// PlaceOrderTool places an order from the user's cart. The result carries an
// approval flag for the review gate.
type PlaceOrderTool struct {
	svc commerce.Service
}

// NewPlaceOrderTool creates a new place-order tool instance.
func NewPlaceOrderTool(svc commerce.Service) *PlaceOrderTool {
	return &PlaceOrderTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *PlaceOrderTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolPlaceOrder,
		Description: "Place an order from the user's current cart. Optionally ship to a saved address and apply a coupon code.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"address_id": {
					Type:        "string",
					Description: "Saved address id from list_addresses (optional)",
				},
				"coupon_code": {
					Type:        "string",
					Description: "Coupon code to apply (optional)",
				},
			},
		},
	}
}

// Name returns the tool identifier.
func (t *PlaceOrderTool) Name() string {
	return ToolPlaceOrder
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *PlaceOrderTool) PromptDocumentation() string {
	return `- **place_order** - Place an order from the current cart
  - Parameters: address_id (string, optional), coupon_code (string, optional)
  - Only call when the user has confirmed they want to order
  - Requires a logged-in user and a non-empty cart
  - Always report the returned tracking code back to the user`
}

// Exec executes the order placement.
func (t *PlaceOrderTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return LoginRequired("place an order"), nil
	}

	addressID := GetOptionalString(args, "address_id", "")
	couponCode := GetOptionalString(args, "coupon_code", "")

	order, err := t.svc.CreateOrder(ctx, userID, addressID, couponCode)
	switch {
	case errors.Is(err, commerce.ErrEmptyCart):
		return Failure("the cart is empty, nothing to order"), nil
	case errors.Is(err, commerce.ErrInvalidCoupon):
		return Failure(fmt.Sprintf("coupon %q is not valid", couponCode)), nil
	case errors.Is(err, commerce.ErrNotFound):
		return Failure("that address id does not exist"), nil
	case err != nil:
		return nil, fmt.Errorf("order placement failed: %w", err)
	}
	return Success(map[string]any{
		"order":          order,
		"tracking_code":  order.TrackingCode,
		"needs_approval": true,
	}), nil
}

// TrackOrderTool looks up an order by tracking code.
type TrackOrderTool struct {
	svc commerce.Service
}

// NewTrackOrderTool creates a new order tracking tool instance.
func NewTrackOrderTool(svc commerce.Service) *TrackOrderTool {
	return &TrackOrderTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *TrackOrderTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolTrackOrder,
		Description: "Look up an order's status by its tracking code (codes look like TH-XXXXXXXXXX or a plain order number).",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"tracking_code": {
					Type:        "string",
					Description: "Tracking code or order number supplied by the user",
				},
			},
			Required: []string{"tracking_code"},
		},
	}
}

// Name returns the tool identifier.
func (t *TrackOrderTool) Name() string {
	return ToolTrackOrder
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *TrackOrderTool) PromptDocumentation() string {
	return `- **track_order** - Look up order status by tracking code
  - Parameters: tracking_code (string, REQUIRED)
  - Works without login; tracking codes are their own proof of ownership`
}

// Exec executes the tracking lookup.
func (t *TrackOrderTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	code, err := GetString(args, "tracking_code")
	if err != nil {
		return nil, err
	}

	order, err := t.svc.TrackOrder(ctx, code)
	if errors.Is(err, commerce.ErrNotFound) {
		return Failure(fmt.Sprintf("no order found for tracking code %q", code)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("order tracking failed: %w", err)
	}
	return Success(map[string]any{
		"order":  order,
		"status": order.Status,
	}), nil
}

// CancelOrderTool cancels one of the user's placed orders. The result carries
// an approval flag for the review gate.
type CancelOrderTool struct {
	svc commerce.Service
}

// NewCancelOrderTool creates a new cancel-order tool instance.
func NewCancelOrderTool(svc commerce.Service) *CancelOrderTool {
	return &CancelOrderTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *CancelOrderTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolCancelOrder,
		Description: "Cancel one of the user's orders. Only orders still in 'placed' status can be cancelled.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"order_id": {
					Type:        "string",
					Description: "Order id from order_history",
				},
			},
			Required: []string{"order_id"},
		},
	}
}

// Name returns the tool identifier.
func (t *CancelOrderTool) Name() string {
	return ToolCancelOrder
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *CancelOrderTool) PromptDocumentation() string {
	return `- **cancel_order** - Cancel an order that has not shipped yet
  - Parameters: order_id (string, REQUIRED)
  - Requires a logged-in user; only 'placed' orders can be cancelled
  - Only call when the user has explicitly asked to cancel`
}

// Exec executes the cancellation.
func (t *CancelOrderTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return LoginRequired("cancel an order"), nil
	}
	orderID, err := GetString(args, "order_id")
	if err != nil {
		return nil, err
	}

	order, err := t.svc.CancelOrder(ctx, userID, orderID)
	switch {
	case errors.Is(err, commerce.ErrNotFound):
		return Failure(fmt.Sprintf("no order with id %q", orderID)), nil
	case errors.Is(err, commerce.ErrNotCancellable):
		return Failure("that order has already shipped and can no longer be cancelled"), nil
	case err != nil:
		return nil, fmt.Errorf("order cancellation failed: %w", err)
	}
	return Success(map[string]any{
		"order":          order,
		"needs_approval": true,
	}), nil
}

// OrderHistoryTool lists the user's past orders.
type OrderHistoryTool struct {
	svc commerce.Service
}

// NewOrderHistoryTool creates a new order history tool instance.
func NewOrderHistoryTool(svc commerce.Service) *OrderHistoryTool {
	return &OrderHistoryTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *OrderHistoryTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolOrderHistory,
		Description: "List the user's past orders, most recent first.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	}
}

// Name returns the tool identifier.
func (t *OrderHistoryTool) Name() string {
	return ToolOrderHistory
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *OrderHistoryTool) PromptDocumentation() string {
	return `- **order_history** - List the user's past orders
  - Parameters: none
  - Requires a logged-in user`
}

// Exec executes the history listing.
func (t *OrderHistoryTool) Exec(ctx context.Context, _ map[string]any) (any, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return LoginRequired("view your order history"), nil
	}

	orders, err := t.svc.OrderHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("order history failed: %w", err)
	}
	return Success(map[string]any{
		"orders": orders,
		"count":  len(orders),
	}), nil
}
