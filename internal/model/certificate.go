package model

import (
	"time"

	"github.com/google/uuid"
)

// Certificate stores an X.509 certificate + private key used to sign ARCA
// access-ticket requests. At most one active certificate may exist per
// (UserID, CUIT, IsProduction); enforcement happens in the service create
// path (deactivate-then-insert), not in the database.
type Certificate struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null"`
	CUIT   string    `gorm:"type:varchar(11);not null;column:cuit"`
	// CertificatePEM / PrivateKeyPEM hold the raw PEM blocks as uploaded
	CertificatePEM string  `gorm:"type:text;not null;column:certificate_pem"`
	PrivateKeyPEM  string  `gorm:"type:text;not null;column:private_key_pem"`
	Passphrase     *string `gorm:"type:text"`
	IsProduction   bool    `gorm:"not null;default:false"`
	ExpiresAt      time.Time
	IsActive       bool `gorm:"not null;default:true"`
	// Metadata holds the parsed subject/issuer/serial/fingerprint as JSON
	Metadata  *string `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
