package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Date   string `form:"date"`                     // YYYY-MM-DD; empty = all dates
	Status string `form:"status,default=Completed"` // Completed | Cancelled | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// SaleItemRequest references exactly one of product, phone or repair, or is
// a manual line carrying ManualName.
type SaleItemRequest struct {
	ProductID  *string         `json:"product_id"  validate:"omitempty,uuid"`
	PhoneID    *string         `json:"phone_id"    validate:"omitempty,uuid"`
	RepairID   *string         `json:"repair_id"   validate:"omitempty,uuid"`
	Quantity   int             `json:"quantity"    validate:"required,min=1"`
	UnitPrice  decimal.Decimal `json:"unit_price"  validate:"min=0"`
	IsManual   bool            `json:"is_manual"`
	ManualName *string         `json:"manual_name" validate:"omitempty,max=200"`
}

type CreateSaleRequest struct {
	TotalAmount   decimal.Decimal   `json:"total_amount"   validate:"min=0"`
	TaxPrimary    decimal.Decimal   `json:"tax_primary"    validate:"min=0"`
	TaxSecondary  decimal.Decimal   `json:"tax_secondary"  validate:"min=0"`
	FinalTotal    decimal.Decimal   `json:"final_total"    validate:"min=0"`
	PaymentMethod string            `json:"payment_method" validate:"required,max=30"`
	ClientID      *string           `json:"client_id"      validate:"omitempty,uuid"`
	Items         []SaleItemRequest `json:"items"          validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ID        string          `json:"id"`
	ProductID *string         `json:"product_id,omitempty"`
	PhoneID   *string         `json:"phone_id,omitempty"`
	RepairID  *string         `json:"repair_id,omitempty"`
	IsManual  bool            `json:"is_manual"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type PaymentResponse struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	CreatedAt string          `json:"created_at"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	TaxPrimary    decimal.Decimal    `json:"tax_primary"`
	TaxSecondary  decimal.Decimal    `json:"tax_secondary"`
	FinalTotal    decimal.Decimal    `json:"final_total"`
	PaymentMethod string             `json:"payment_method"`
	Status        string             `json:"status"`
	ClientID      *string            `json:"client_id,omitempty"`
	Items         []SaleItemResponse `json:"items"`
	Payments      []PaymentResponse  `json:"payments"`
	CreatedAt     string             `json:"created_at"`
}
