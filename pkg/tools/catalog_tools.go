package tools

import (
	"context"
	"errors"
	"fmt"

	"shopassist/pkg/commerce"
)

// SearchProductsTool searches the catalog by keyword.
type SearchProductsTool struct {
	svc commerce.Service
}

// NewSearchProductsTool creates a new product search tool instance.
func NewSearchProductsTool(svc commerce.Service) *SearchProductsTool {
	return &SearchProductsTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *SearchProductsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolSearchProducts,
		Description: "Search the product catalog by keyword. Returns matching products with id, name, price and stock.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Search keywords, e.g. 'ddr5 ram' or 'rtx 4070'",
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum number of results (default 5)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Name returns the tool identifier.
func (t *SearchProductsTool) Name() string {
	return ToolSearchProducts
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *SearchProductsTool) PromptDocumentation() string {
	return `- **search_products** - Search the catalog by keyword
  - Parameters: query (string, REQUIRED), limit (integer, optional, default 5)
  - Use whenever the user asks about products, availability or prices
  - Always quote the returned product id when the user wants to act on a result`
}

// Exec executes the catalog search.
func (t *SearchProductsTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	query, err := GetString(args, "query")
	if err != nil {
		return nil, err
	}
	limit := GetOptionalInt(args, "limit", 5)

	products, err := t.svc.SearchProducts(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("product search failed: %w", err)
	}
	return Success(map[string]any{
		"products": products,
		"count":    len(products),
	}), nil
}

// GetProductTool fetches a single product by id.
type GetProductTool struct {
	svc commerce.Service
}

// NewGetProductTool creates a new product lookup tool instance.
func NewGetProductTool(svc commerce.Service) *GetProductTool {
	return &GetProductTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *GetProductTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolGetProduct,
		Description: "Get full details for one product by its id.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"product_id": {
					Type:        "string",
					Description: "Product id as returned by search_products",
				},
			},
			Required: []string{"product_id"},
		},
	}
}

// Name returns the tool identifier.
func (t *GetProductTool) Name() string {
	return ToolGetProduct
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *GetProductTool) PromptDocumentation() string {
	return `- **get_product** - Get details for one product
  - Parameters: product_id (string, REQUIRED)
  - Use when the user asks for details about a specific product`
}

// Exec executes the product lookup.
func (t *GetProductTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	id, err := GetString(args, "product_id")
	if err != nil {
		return nil, err
	}

	product, err := t.svc.GetProduct(ctx, id)
	if errors.Is(err, commerce.ErrNotFound) {
		return Failure(fmt.Sprintf("no product with id %q", id)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("product lookup failed: %w", err)
	}
	return Success(map[string]any{"product": product}), nil
}

// ProductsByCategoryTool lists products in a category.
type ProductsByCategoryTool struct {
	svc commerce.Service
}

// NewProductsByCategoryTool creates a new category listing tool instance.
func NewProductsByCategoryTool(svc commerce.Service) *ProductsByCategoryTool {
	return &ProductsByCategoryTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *ProductsByCategoryTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolProductsByCategory,
		Description: "List products in a category such as ram, ssd, cpu, gpu, psu, motherboard, aircooler, case or accessories.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"category": {
					Type:        "string",
					Description: "Category name",
					Enum:        []string{"ram", "ssd", "cpu", "gpu", "psu", "motherboard", "aircooler", "case", "accessories"},
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum number of results (default 5)",
				},
			},
			Required: []string{"category"},
		},
	}
}

// Name returns the tool identifier.
func (t *ProductsByCategoryTool) Name() string {
	return ToolProductsByCategory
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *ProductsByCategoryTool) PromptDocumentation() string {
	return `- **products_by_category** - List products in a category
  - Parameters: category (string, REQUIRED, one of ram/ssd/cpu/gpu/psu/motherboard/aircooler/case/accessories), limit (integer, optional)
  - Use when the user browses a whole category rather than searching`
}

// Exec executes the category listing.
func (t *ProductsByCategoryTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	category, err := GetString(args, "category")
	if err != nil {
		return nil, err
	}
	limit := GetOptionalInt(args, "limit", 5)

	products, err := t.svc.ProductsByCategory(ctx, category, limit)
	if err != nil {
		return nil, fmt.Errorf("category listing failed: %w", err)
	}
	return Success(map[string]any{
		"category": category,
		"products": products,
		"count":    len(products),
	}), nil
}

// ListCategoriesTool lists the catalog's categories.
type ListCategoriesTool struct {
	svc commerce.Service
}

// NewListCategoriesTool creates a new category enumeration tool instance.
func NewListCategoriesTool(svc commerce.Service) *ListCategoriesTool {
	return &ListCategoriesTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *ListCategoriesTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolListCategories,
		Description: "List every product category currently in the catalog.",
		InputSchema: InputSchema{Type: "object", Properties: map[string]Property{}},
	}
}

// Name returns the tool identifier.
func (t *ListCategoriesTool) Name() string {
	return ToolListCategories
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *ListCategoriesTool) PromptDocumentation() string {
	return `- **list_categories** - List all product categories
  - Parameters: none
  - Use when the user asks what kinds of products the store carries`
}

// Exec executes the category enumeration.
func (t *ListCategoriesTool) Exec(ctx context.Context, _ map[string]any) (any, error) {
	categories, err := t.svc.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("category enumeration failed: %w", err)
	}
	return Success(map[string]any{
		"categories": categories,
		"count":      len(categories),
	}), nil
}

// PriceRangeTool summarizes catalog pricing.
type PriceRangeTool struct {
	svc commerce.Service
}

// NewPriceRangeTool creates a new price range tool instance.
func NewPriceRangeTool(svc commerce.Service) *PriceRangeTool {
	return &PriceRangeTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *PriceRangeTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolGetPriceRange,
		Description: "Get the minimum, maximum and average product price, for the whole catalog or one category.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"category": {
					Type:        "string",
					Description: "Optional category to scope the range to",
				},
			},
		},
	}
}

// Name returns the tool identifier.
func (t *PriceRangeTool) Name() string {
	return ToolGetPriceRange
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *PriceRangeTool) PromptDocumentation() string {
	return `- **get_price_range** - Min/max/average price, overall or per category
  - Parameters: category (string, optional)
  - Use for budgeting questions like "how much do GPUs cost here?"`
}

// Exec executes the price range query.
func (t *PriceRangeTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	category := GetOptionalString(args, "category", "")

	pr, err := t.svc.GetPriceRange(ctx, category)
	if errors.Is(err, commerce.ErrNotFound) {
		return Failure(fmt.Sprintf("no products found in category %q", category)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("price range query failed: %w", err)
	}
	return Success(map[string]any{"price_range": pr}), nil
}

// LowStockProductsTool lists products running low on stock.
type LowStockProductsTool struct {
	svc commerce.Service
}

// NewLowStockProductsTool creates a new low-stock listing tool instance.
func NewLowStockProductsTool(svc commerce.Service) *LowStockProductsTool {
	return &LowStockProductsTool{svc: svc}
}

// Definition returns the tool's definition in provider-neutral format.
func (t *LowStockProductsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolLowStockProducts,
		Description: "List products whose stock is at or below a threshold. Useful for availability warnings.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"threshold": {
					Type:        "integer",
					Description: "Stock level cutoff (default 5)",
				},
			},
		},
	}
}

// Name returns the tool identifier.
func (t *LowStockProductsTool) Name() string {
	return ToolLowStockProducts
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *LowStockProductsTool) PromptDocumentation() string {
	return `- **get_low_stock_products** - Products at or below a stock threshold
  - Parameters: threshold (integer, optional, default 5)
  - Use to warn the user an item may sell out soon`
}

// Exec executes the low-stock listing.
func (t *LowStockProductsTool) Exec(ctx context.Context, args map[string]any) (any, error) {
	threshold := GetOptionalInt(args, "threshold", 5)

	products, err := t.svc.LowStockProducts(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("low-stock listing failed: %w", err)
	}
	return Success(map[string]any{
		"threshold": threshold,
		"products":  products,
		"count":     len(products),
	}), nil
}
