package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type InvoiceItemRequest struct {
	Description string          `json:"description" validate:"required,min=1"`
	Quantity    decimal.Decimal `json:"quantity"    validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
}

type CreateInvoiceRequest struct {
	ClientID string `json:"client_id" validate:"required,uuid"`
	// PointOfSaleID is optional; the user's default (lowest active number) is used when absent
	PointOfSaleID *string `json:"point_of_sale_id" validate:"omitempty,uuid"`
	InvoiceType   int     `json:"invoice_type"     validate:"required,min=1"`
	// Concept: 1=Products, 2=Services, 3=Mixed
	Concept      int                  `json:"concept"  validate:"required,min=1,max=3"`
	IssueDate *string `json:"issue_date"` // YYYY-MM-DD; default today
	DueDate   *string `json:"due_date"`
	// Service period; required by the authority for concepts 2 and 3,
	// defaulted to the issue date when omitted
	ServiceFrom  *string              `json:"service_from"`
	ServiceTo    *string              `json:"service_to"`
	Currency     string               `json:"currency"`
	ExchangeRate *decimal.Decimal     `json:"exchange_rate"`
	Items        []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes        *string              `json:"notes"`
}

// InvoiceFilter is bound from the query string of GET /v1/invoices.
type InvoiceFilter struct {
	ClientID      string `form:"client_id"        validate:"omitempty,uuid"`
	PointOfSaleID string `form:"point_of_sale_id" validate:"omitempty,uuid"`
	InvoiceType   int    `form:"invoice_type"`
	Status        string `form:"status"` // PENDING | APPROVED | REJECTED | ERROR
	DateFrom      string `form:"date_from"`
	DateTo        string `form:"date_to"`
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InvoiceItemResponse struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type InvoiceResponse struct {
	ID            string                `json:"id"`
	ClientID      string                `json:"client_id"`
	PointOfSaleID string                `json:"point_of_sale_id"`
	InvoiceType   int                   `json:"invoice_type"`
	Number        int64                 `json:"number"`
	Concept       int                   `json:"concept"`
	Currency      string                `json:"currency"`
	ExchangeRate  decimal.Decimal       `json:"exchange_rate"`
	IssueDate     string                `json:"issue_date"`
	NetAmount     decimal.Decimal       `json:"net_amount"`
	VATAmount     decimal.Decimal       `json:"vat_amount"`
	ExemptAmount  decimal.Decimal       `json:"exempt_amount"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	Status        string                `json:"status"`
	CAE           *string               `json:"cae"`
	CAEExpiration *string               `json:"cae_expiration"`
	Items         []InvoiceItemResponse `json:"items"`
	CreatedAt     string                `json:"created_at"`
}

type InvoiceListResponse struct {
	Data  []InvoiceResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// InvoiceStatistics aggregates issuance outcomes for a user.
type InvoiceStatistics struct {
	TotalInvoices    int64           `json:"total_invoices"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	ApprovedInvoices int64           `json:"approved_invoices"`
	RejectedInvoices int64           `json:"rejected_invoices"`
	PendingInvoices  int64           `json:"pending_invoices"`
	ErrorInvoices    int64           `json:"error_invoices"`
}
