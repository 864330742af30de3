package tools

import (
	"shopassist/pkg/commerce"
	"shopassist/pkg/knowledge"
)

// NewCommerceRegistry builds the full tool set over the given capability
// providers. Called once at startup.
func NewCommerceRegistry(svc commerce.Service, kb *knowledge.Base, tokenBudget int) *Registry {
	r := NewRegistry()

	r.MustRegister(NewSearchProductsTool(svc))
	r.MustRegister(NewGetProductTool(svc))
	r.MustRegister(NewProductsByCategoryTool(svc))
	r.MustRegister(NewListCategoriesTool(svc))
	r.MustRegister(NewPriceRangeTool(svc))
	r.MustRegister(NewLowStockProductsTool(svc))

	r.MustRegister(NewViewCartTool(svc))
	r.MustRegister(NewAddToCartTool(svc))
	r.MustRegister(NewRemoveFromCartTool(svc))
	r.MustRegister(NewUpdateCartItemTool(svc))
	r.MustRegister(NewClearCartTool(svc))

	r.MustRegister(NewPlaceOrderTool(svc))
	r.MustRegister(NewTrackOrderTool(svc))
	r.MustRegister(NewOrderHistoryTool(svc))
	r.MustRegister(NewCancelOrderTool(svc))

	r.MustRegister(NewListAddressesTool(svc))
	r.MustRegister(NewAddAddressTool(svc))
	r.MustRegister(NewListCouponsTool(svc))
	r.MustRegister(NewValidateCouponTool(svc))
	r.MustRegister(NewAddToWishlistTool(svc))
	r.MustRegister(NewViewWishlistTool(svc))

	if kb != nil {
		r.MustRegister(NewSearchKnowledgeTool(kb, tokenBudget))
	}

	return r
}
