package model

import (
	"time"

	"github.com/google/uuid"
)

// APIKey authenticates machine clients via the X-API-Key header.
// Only the SHA-256 digest is stored; the plaintext key is shown once at creation.
type APIKey struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null"`
	Name       string    `gorm:"not null"`
	KeyDigest  string    `gorm:"uniqueIndex;not null"`
	// Prefix is the first characters of the key (e.g. "ark_3f2a"), kept for display
	Prefix     string `gorm:"type:varchar(12);not null"`
	IsActive   bool   `gorm:"not null;default:true"`
	LastUsedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
