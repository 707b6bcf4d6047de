package repository

import (
	"context"

	"github.com/lorenzotomasdiez/ArcAPI/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	FindByUserAndTaxID(ctx context.Context, userID uuid.UUID, taxID string) (*model.Client, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Client, int64, error)
	Update(ctx context.Context, c *model.Client) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) ClientRepository { return &clientRepo{db: db} }

func (r *clientRepo) Create(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *clientRepo) FindByUserAndTaxID(ctx context.Context, userID uuid.UUID, taxID string) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).Where("user_id = ? AND tax_id = ?", userID, taxID).First(&c).Error
	return &c, err
}

func (r *clientRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Client, int64, error) {
	var clients []model.Client
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Client{}).Where("user_id = ? AND is_active = true", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("name ASC").Offset((page - 1) * limit).Limit(limit).Find(&clients).Error
	return clients, total, err
}

func (r *clientRepo) Update(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clientRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Client{}).
		Where("id = ?", id).Update("is_active", false).Error
}
