package repository

import (
	"context"

	"github.com/lorenzotomasdiez/ArcAPI/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PointOfSaleRepository interface {
	Create(ctx context.Context, p *model.PointOfSale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PointOfSale, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PointOfSale, error)
	// DefaultForUser returns the user's active point of sale with the lowest number.
	DefaultForUser(ctx context.Context, userID uuid.UUID) (*model.PointOfSale, error)
	Update(ctx context.Context, p *model.PointOfSale) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type pointOfSaleRepo struct{ db *gorm.DB }

func NewPointOfSaleRepository(db *gorm.DB) PointOfSaleRepository { return &pointOfSaleRepo{db: db} }

func (r *pointOfSaleRepo) Create(ctx context.Context, p *model.PointOfSale) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *pointOfSaleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PointOfSale, error) {
	var p model.PointOfSale
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *pointOfSaleRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PointOfSale, error) {
	var list []model.PointOfSale
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("number ASC").Find(&list).Error
	return list, err
}

func (r *pointOfSaleRepo) DefaultForUser(ctx context.Context, userID uuid.UUID) (*model.PointOfSale, error) {
	var p model.PointOfSale
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = true", userID).
		Order("number ASC").First(&p).Error
	return &p, err
}

func (r *pointOfSaleRepo) Update(ctx context.Context, p *model.PointOfSale) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *pointOfSaleRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.PointOfSale{}).
		Where("id = ?", id).Update("is_active", false).Error
}
