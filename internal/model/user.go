package model

import (
	"time"

	"github.com/google/uuid"
)

// User owns every other entity in the system.
// Status: "ACTIVE" | "SUSPENDED" | "DELETED" — rows are never hard-deleted here.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Name         string
	Tier         string `gorm:"type:varchar(20);not null;default:'free'"`
	Status       string `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	UserStatusActive    = "ACTIVE"
	UserStatusSuspended = "SUSPENDED"
	UserStatusDeleted   = "DELETED"
)
