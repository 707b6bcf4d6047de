package repository

import (
	"context"
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type APIKeyRepository interface {
	Create(ctx context.Context, k *model.APIKey) error
	FindByDigest(ctx context.Context, digest string) (*model.APIKey, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.APIKey, error)
	Revoke(ctx context.Context, id, userID uuid.UUID) error
	TouchLastUsed(ctx context.Context, id uuid.UUID) error
}

type apiKeyRepo struct{ db *gorm.DB }

func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository { return &apiKeyRepo{db: db} }

func (r *apiKeyRepo) Create(ctx context.Context, k *model.APIKey) error {
	return r.db.WithContext(ctx).Create(k).Error
}

func (r *apiKeyRepo) FindByDigest(ctx context.Context, digest string) (*model.APIKey, error) {
	var k model.APIKey
	err := r.db.WithContext(ctx).Where("key_digest = ? AND is_active = true", digest).First(&k).Error
	return &k, err
}

func (r *apiKeyRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.APIKey, error) {
	var keys []model.APIKey
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

func (r *apiKeyRepo) Revoke(ctx context.Context, id, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.APIKey{}).
		Where("id = ? AND user_id = ?", id, userID).Update("is_active", false).Error
}

// TouchLastUsed is best-effort bookkeeping; callers ignore its error.
func (r *apiKeyRepo) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.APIKey{}).
		Where("id = ?", id).Update("last_used_at", now).Error
}
