package model

import (
	"time"

	"github.com/google/uuid"
)

// Client is an invoice counterparty (the customer being billed).
// TaxIDType: "CUIT" | "CUIL" | "DNI" | ... (see refdata.DocumentTypes)
// IVACondition: refdata IVA condition id (1=Responsable Inscripto, 4=Consumidor Final, ...)
type Client struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_clients_user_taxid"`
	TaxID        string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_clients_user_taxid"`
	TaxIDType    string    `gorm:"type:varchar(20);not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	Address      *string
	IVACondition int  `gorm:"not null"`
	IsActive     bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
