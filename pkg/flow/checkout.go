package flow

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"shopassist/pkg/commerce"
	"shopassist/pkg/logx"
)

const checkoutFailureMessage = "Sorry, something went wrong with checkout. Your flow has been reset; please try again."

// Checkout runs the deterministic checkout step machine.
type Checkout struct {
	svc    commerce.Service
	logger *logx.Logger
}

// NewCheckout creates the checkout machine.
func NewCheckout(svc commerce.Service, logger *logx.Logger) *Checkout {
	return &Checkout{svc: svc, logger: logger}
}

// Enter starts the checkout flow: verifies the cart, renders the shipping
// address menu, and persists step=shipping for the next message. An empty
// cart or an empty address book aborts entry and leaves the flow inactive.
func (c *Checkout) Enter(ctx context.Context, userID string, meta *Metadata) (string, error) {
	cart, err := c.svc.GetCart(ctx, userID)
	if err != nil {
		c.logger.Error("checkout entry failed loading cart: %v", err)
		meta.Reset()
		return checkoutFailureMessage, nil
	}
	if len(cart.Items) == 0 {
		meta.Reset()
		return "Your cart is empty. Add some products before checking out.", nil
	}

	addresses, err := c.svc.ListAddresses(ctx, userID)
	if err != nil {
		c.logger.Error("checkout entry failed loading addresses: %v", err)
		meta.Reset()
		return checkoutFailureMessage, nil
	}

	// No addresses means nothing the shipping step could accept; fail
	// closed so the general path (where add_address lives) stays reachable.
	if len(addresses) == 0 {
		meta.Reset()
		return "You have no saved shipping addresses. Please add one first (for example: \"add address Home, 1 Main St, Austin, 78701, US\"), then say \"checkout\" again.", nil
	}

	meta.EnterCheckout()
	meta.Checkout.Addresses = addresses

	return renderAddressMenu(cart, addresses), nil
}

// Handle processes one inbound message for the active checkout flow.
func (c *Checkout) Handle(ctx context.Context, userID string, meta *Metadata, input string) (string, error) {
	switch meta.CheckoutStep {
	case CheckoutStepShipping:
		return c.handleShipping(ctx, userID, meta, input)
	case CheckoutStepCoupon:
		return c.handleCoupon(ctx, userID, meta, input)
	case CheckoutStepReview, CheckoutStepOrder:
		return c.handleReview(ctx, userID, meta, input)
	default:
		// Unknown step means corrupted state; reset rather than loop.
		c.logger.Warn("unknown checkout step %q, resetting flow", meta.CheckoutStep)
		meta.Reset()
		return "Checkout has been reset. Say \"checkout\" to start again.", nil
	}
}

var addressSelectRe = regexp.MustCompile(`(?i)(?:confirm|use)\s+address\s+(\d+)`)

func (c *Checkout) handleShipping(ctx context.Context, userID string, meta *Metadata, input string) (string, error) {
	trimmed := strings.TrimSpace(input)

	idx := -1
	if n, err := strconv.Atoi(trimmed); err == nil {
		idx = n
	} else if m := addressSelectRe.FindStringSubmatch(trimmed); m != nil {
		idx, _ = strconv.Atoi(m[1])
	}

	addresses := meta.Checkout.Addresses
	if idx < 1 || idx > len(addresses) {
		cart, err := c.svc.GetCart(ctx, userID)
		if err != nil {
			c.logger.Error("checkout shipping failed loading cart: %v", err)
			meta.Reset()
			return checkoutFailureMessage, nil
		}
		return "Please pick an address by number.\n\n" + renderAddressMenu(cart, addresses), nil
	}

	selected := addresses[idx-1]
	meta.Checkout.AddressID = selected.ID
	meta.Checkout.AddressLabel = fmt.Sprintf("%s, %s, %s %s, %s", selected.Label, selected.Street, selected.City, selected.Zip, selected.Country)

	coupons, err := c.svc.ListCoupons(ctx)
	if err != nil {
		c.logger.Error("checkout failed loading coupons: %v", err)
		meta.Reset()
		return checkoutFailureMessage, nil
	}
	meta.Checkout.Coupons = coupons
	meta.CheckoutStep = CheckoutStepCoupon

	return renderCouponMenu(meta.Checkout.AddressLabel, coupons), nil
}

var couponSelectRe = regexp.MustCompile(`(?i)apply\s+coupon\s+(\S+)`)

func (c *Checkout) handleCoupon(ctx context.Context, userID string, meta *Metadata, input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	lowered := strings.ToLower(trimmed)

	var code string
	matched := false
	switch {
	case lowered == "no coupon" || lowered == "skip" || lowered == "continue" || lowered == "no":
		code = ""
		matched = true
	default:
		if n, err := strconv.Atoi(trimmed); err == nil {
			if n >= 1 && n <= len(meta.Checkout.Coupons) {
				code = meta.Checkout.Coupons[n-1].Code
				matched = true
			}
		} else if m := couponSelectRe.FindStringSubmatch(trimmed); m != nil {
			arg := m[1]
			if n, err := strconv.Atoi(arg); err == nil {
				if n >= 1 && n <= len(meta.Checkout.Coupons) {
					code = meta.Checkout.Coupons[n-1].Code
					matched = true
				}
			} else {
				if _, err := c.svc.ValidateCoupon(ctx, arg); err == nil {
					code = strings.ToUpper(arg)
					matched = true
				}
			}
		}
	}

	if !matched {
		return "I didn't catch that coupon choice.\n\n" + renderCouponMenu(meta.Checkout.AddressLabel, meta.Checkout.Coupons), nil
	}

	meta.Checkout.CouponCode = code
	meta.CheckoutStep = CheckoutStepReview

	review, err := c.renderReview(ctx, userID, meta)
	if err != nil {
		c.logger.Error("checkout failed rendering review: %v", err)
		meta.Reset()
		return checkoutFailureMessage, nil
	}
	return review, nil
}

func (c *Checkout) handleReview(ctx context.Context, userID string, meta *Metadata, input string) (string, error) {
	lowered := strings.ToLower(strings.TrimSpace(input))

	switch lowered {
	case "yes", "confirm", "ok", "place order", "place the order":
		order, err := c.svc.CreateOrder(ctx, userID, meta.Checkout.AddressID, meta.Checkout.CouponCode)
		meta.Reset()
		if err != nil {
			c.logger.Error("order creation failed: %v", err)
			return "Sorry, placing your order failed. Your flow has been reset; please try again.", nil
		}
		return fmt.Sprintf("Your order is placed. Order total: $%.2f. Tracking code: %s. You can ask me to track it any time.", order.Total, order.TrackingCode), nil
	case "cancel":
		meta.Reset()
		return "Checkout cancelled. Your cart is untouched.", nil
	default:
		review, err := c.renderReview(ctx, userID, meta)
		if err != nil {
			c.logger.Error("checkout failed re-rendering review: %v", err)
			meta.Reset()
			return checkoutFailureMessage, nil
		}
		return "Please reply \"yes\" to place the order or \"cancel\" to abort.\n\n" + review, nil
	}
}

func (c *Checkout) renderReview(ctx context.Context, userID string, meta *Metadata) (string, error) {
	cart, err := c.svc.GetCart(ctx, userID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Order review:\n")
	for _, item := range cart.Items {
		fmt.Fprintf(&b, "- %s x%d ($%.2f)\n", item.Name, item.Quantity, item.Price*float64(item.Quantity))
	}
	fmt.Fprintf(&b, "Subtotal: $%.2f\n", cart.Total)
	fmt.Fprintf(&b, "Ship to: %s\n", meta.Checkout.AddressLabel)
	if meta.Checkout.CouponCode != "" {
		fmt.Fprintf(&b, "Coupon: %s\n", meta.Checkout.CouponCode)
	} else {
		b.WriteString("Coupon: none\n")
	}
	b.WriteString("\nReply \"yes\" to place the order or \"cancel\" to abort.")
	return b.String(), nil
}

func renderAddressMenu(cart commerce.Cart, addresses []commerce.Address) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Checkout started. Your cart has %d item(s), subtotal $%.2f.\n\n", len(cart.Items), cart.Total)
	b.WriteString("Where should we ship? Pick an address by number:\n")
	for i, a := range addresses {
		fmt.Fprintf(&b, "%d. %s, %s, %s %s, %s\n", i+1, a.Label, a.Street, a.City, a.Zip, a.Country)
	}
	return b.String()
}

func renderCouponMenu(addressLabel string, coupons []commerce.Coupon) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shipping to %s.\n\n", addressLabel)
	if len(coupons) == 0 {
		b.WriteString("No coupons available right now. Say \"continue\" to review your order.")
		return b.String()
	}
	b.WriteString("Available coupons:\n")
	for i, c := range coupons {
		if c.PercentOff > 0 {
			fmt.Fprintf(&b, "%d. %s (%.0f%% off)\n", i+1, c.Code, c.PercentOff)
		} else {
			fmt.Fprintf(&b, "%d. %s ($%.2f off)\n", i+1, c.Code, c.AmountOff)
		}
	}
	b.WriteString("\nPick one by number, say \"apply coupon CODE\", or \"skip\".")
	return b.String()
}
