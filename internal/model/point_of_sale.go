package model

import (
	"time"

	"github.com/google/uuid"
)

// PointOfSale is a numbered issuing channel registered with ARCA.
// Invoice numbers are sequenced independently per (pointOfSaleID, invoiceType).
// IsProduction selects the ARCA environment (production vs homologation).
type PointOfSale struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pos_user_number"`
	Number       int       `gorm:"not null;uniqueIndex:idx_pos_user_number"`
	Name         string
	IsProduction bool `gorm:"not null;default:false"`
	IsActive     bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
