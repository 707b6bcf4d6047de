package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice statuses. PENDING rows exist only between the durable insert and the
// ARCA reconciliation; APPROVED/REJECTED/ERROR are terminal.
const (
	InvoiceStatusPending  = "PENDING"
	InvoiceStatusApproved = "APPROVED"
	InvoiceStatusRejected = "REJECTED"
	InvoiceStatusError    = "ERROR"
)

// Invoice is the locally persisted record of an issuance attempt.
// Number is monotonic per (PointOfSaleID, InvoiceType) and starts at 1; the
// composite unique index is what makes concurrent numbering safe (insert under
// the constraint, retry on duplicate).
type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientID      uuid.UUID `gorm:"type:uuid;index;not null"`
	PointOfSaleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_scope_number"`
	InvoiceType   int       `gorm:"not null;uniqueIndex:idx_invoices_scope_number"`
	Number        int64     `gorm:"not null;uniqueIndex:idx_invoices_scope_number"`
	// Concept: 1=Products, 2=Services, 3=Mixed
	Concept      int    `gorm:"not null"`
	Currency     string `gorm:"type:varchar(3);not null;default:'ARS'"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(15,6);not null;default:1"`
	IssueDate    time.Time
	DueDate      *time.Time
	ServiceFrom  *time.Time
	ServiceTo    *time.Time
	NetAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	VATAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null;column:vat_amount"`
	ExemptAmount decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Status       string          `gorm:"type:varchar(20);not null;default:'PENDING'"`
	// CAE is the authorization code granted by ARCA; set only on APPROVED
	CAE           *string    `gorm:"type:varchar(20);column:cae"`
	CAEExpiration *time.Time `gorm:"column:cae_expiration"`
	// ArcaResponse stores the raw authority result payload for audit
	ArcaResponse *string `gorm:"type:jsonb;column:arca_response"`
	// Metadata carries notes and, on ERROR, the failure reason
	Metadata  *string `gorm:"type:jsonb"`
	Items     []InvoiceItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceItem is a line item; created atomically with its invoice, never alone.
type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Description string    `gorm:"not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(15,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	VATRate     decimal.Decimal `gorm:"type:decimal(5,2);not null;column:vat_rate"`
	VATAmount   decimal.Decimal `gorm:"type:decimal(15,2);not null;column:vat_amount"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	CreatedAt   time.Time
}
