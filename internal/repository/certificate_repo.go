package repository

import (
	"context"
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CertificateRepository interface {
	Create(ctx context.Context, c *model.Certificate) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Certificate, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Certificate, error)
	// FindActive returns the newest-expiring active certificate for the triple,
	// regardless of expiry — expiry handling (lazy soft-delete) is the service's job.
	FindActive(ctx context.Context, userID uuid.UUID, cuit string, isProduction bool) (*model.Certificate, error)
	// FindActiveForEnvironment returns the newest active certificate for the
	// user in the given environment, whatever its CUIT.
	FindActiveForEnvironment(ctx context.Context, userID uuid.UUID, isProduction bool) (*model.Certificate, error)
	// DeactivateActive flips isActive off for every active certificate of the triple.
	DeactivateActive(ctx context.Context, userID uuid.UUID, cuit string, isProduction bool) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	// ExpiringSoon lists active certificates expiring within the window, soonest first.
	ExpiringSoon(ctx context.Context, userID uuid.UUID, within time.Duration) ([]model.Certificate, error)
}

type certificateRepo struct{ db *gorm.DB }

func NewCertificateRepository(db *gorm.DB) CertificateRepository { return &certificateRepo{db: db} }

func (r *certificateRepo) Create(ctx context.Context, c *model.Certificate) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *certificateRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Certificate, error) {
	var c model.Certificate
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *certificateRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&certs).Error
	return certs, err
}

func (r *certificateRepo) FindActive(ctx context.Context, userID uuid.UUID, cuit string, isProduction bool) (*model.Certificate, error) {
	var c model.Certificate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND cuit = ? AND is_production = ? AND is_active = true", userID, cuit, isProduction).
		Order("expires_at DESC").First(&c).Error
	return &c, err
}

func (r *certificateRepo) FindActiveForEnvironment(ctx context.Context, userID uuid.UUID, isProduction bool) (*model.Certificate, error) {
	var c model.Certificate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_production = ? AND is_active = true", userID, isProduction).
		Order("created_at DESC").First(&c).Error
	return &c, err
}

func (r *certificateRepo) DeactivateActive(ctx context.Context, userID uuid.UUID, cuit string, isProduction bool) error {
	return r.db.WithContext(ctx).Model(&model.Certificate{}).
		Where("user_id = ? AND cuit = ? AND is_production = ? AND is_active = true", userID, cuit, isProduction).
		Update("is_active", false).Error
}

func (r *certificateRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ?", id).Update("is_active", false).Error
}

func (r *certificateRepo) ExpiringSoon(ctx context.Context, userID uuid.UUID, within time.Duration) ([]model.Certificate, error) {
	var certs []model.Certificate
	now := time.Now()
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = true AND expires_at >= ? AND expires_at <= ?",
			userID, now, now.Add(within)).
		Order("expires_at ASC").Find(&certs).Error
	return certs, err
}
