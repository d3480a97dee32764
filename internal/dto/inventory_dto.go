package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

type ProductFilter struct {
	Name     string `form:"name"`
	Category string `form:"category"`
	BranchID string `form:"branch_id" validate:"omitempty,uuid"`
	LowStock bool   `form:"low_stock"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	SKU          string          `json:"sku"           validate:"required"`
	Name         string          `json:"name"          validate:"required"`
	Description  *string         `json:"description"`
	Category     string          `json:"category"      validate:"required"`
	CostPrice    decimal.Decimal `json:"cost_price"    validate:"min=0"`
	UnitPrice    decimal.Decimal `json:"unit_price"    validate:"required"`
	StockOnHand  int             `json:"stock_on_hand" validate:"min=0"`
	ReorderLevel int             `json:"reorder_level" validate:"min=0"`
	BranchID     *string         `json:"branch_id"     validate:"omitempty,uuid"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Category     *string          `json:"category"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	ReorderLevel *int             `json:"reorder_level"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"required,min=3"`
}

// DispenseRequest sells qty units of a product against a visit's invoice.
// The charge runs through the insurance allocator like any other.
type DispenseRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Category     string          `json:"category"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	StockOnHand  int             `json:"stock_on_hand"`
	ReorderLevel int             `json:"reorder_level"`
	Active       bool            `json:"active"`
}

type StockMovementResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	Kind        string  `json:"kind"`
	Quantity    int     `json:"quantity"`
	StockBefore int     `json:"stock_before"`
	StockAfter  int     `json:"stock_after"`
	Reason      string  `json:"reason"`
	ReferenceID *string `json:"reference_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}
