package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/model"
	"github.com/lorenzotomasdiez/ArcAPI/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PointOfSaleService interface {
	CreatePointOfSale(ctx context.Context, userID uuid.UUID, req dto.CreatePointOfSaleRequest) (*dto.PointOfSaleResponse, error)
	GetPointOfSale(ctx context.Context, userID, id uuid.UUID) (*dto.PointOfSaleResponse, error)
	ListPointsOfSale(ctx context.Context, userID uuid.UUID) ([]dto.PointOfSaleResponse, error)
	UpdatePointOfSale(ctx context.Context, userID, id uuid.UUID, req dto.UpdatePointOfSaleRequest) (*dto.PointOfSaleResponse, error)
	DeletePointOfSale(ctx context.Context, userID, id uuid.UUID) error
}

type pointOfSaleService struct {
	repo repository.PointOfSaleRepository
}

func NewPointOfSaleService(repo repository.PointOfSaleRepository) PointOfSaleService {
	return &pointOfSaleService{repo: repo}
}

func (s *pointOfSaleService) CreatePointOfSale(ctx context.Context, userID uuid.UUID, req dto.CreatePointOfSaleRequest) (*dto.PointOfSaleResponse, error) {
	p := &model.PointOfSale{
		UserID:       userID,
		Number:       req.Number,
		Name:         req.Name,
		IsProduction: req.IsProduction,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: point of sale %d already exists", ErrDuplicate, req.Number)
		}
		return nil, err
	}
	return pointOfSaleToResponse(p), nil
}

func (s *pointOfSaleService) GetPointOfSale(ctx context.Context, userID, id uuid.UUID) (*dto.PointOfSaleResponse, error) {
	p, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return pointOfSaleToResponse(p), nil
}

func (s *pointOfSaleService) ListPointsOfSale(ctx context.Context, userID uuid.UUID) ([]dto.PointOfSaleResponse, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.PointOfSaleResponse, len(list))
	for i := range list {
		resp[i] = *pointOfSaleToResponse(&list[i])
	}
	return resp, nil
}

func (s *pointOfSaleService) UpdatePointOfSale(ctx context.Context, userID, id uuid.UUID, req dto.UpdatePointOfSaleRequest) (*dto.PointOfSaleResponse, error) {
	p, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.IsProduction != nil {
		p.IsProduction = *req.IsProduction
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return pointOfSaleToResponse(p), nil
}

func (s *pointOfSaleService) DeletePointOfSale(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *pointOfSaleService) findOwned(ctx context.Context, userID, id uuid.UUID) (*model.PointOfSale, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil || p.UserID != userID {
		return nil, fmt.Errorf("%w: point of sale", ErrNotFound)
	}
	return p, nil
}

func pointOfSaleToResponse(p *model.PointOfSale) *dto.PointOfSaleResponse {
	return &dto.PointOfSaleResponse{
		ID:           p.ID.String(),
		Number:       p.Number,
		Name:         p.Name,
		IsProduction: p.IsProduction,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}
