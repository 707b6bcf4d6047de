package infra

import (
	"fmt"

	"github.com/lorenzotomasdiez/ArcAPI/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs AutoMigrate.
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey — the invoice numbering retry loop depends on it.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.User{},
		&model.APIKey{},
		&model.Client{},
		&model.PointOfSale{},
		&model.Certificate{},
		&model.Invoice{},
		&model.InvoiceItem{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	return db, nil
}
