package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/model"
	"github.com/lorenzotomasdiez/ArcAPI/internal/refdata"
	"github.com/lorenzotomasdiez/ArcAPI/internal/repository"

	"github.com/google/uuid"
)

type ClientService interface {
	CreateClient(ctx context.Context, userID uuid.UUID, req dto.CreateClientRequest) (*dto.ClientResponse, error)
	GetClient(ctx context.Context, userID, id uuid.UUID) (*dto.ClientResponse, error)
	ListClients(ctx context.Context, userID uuid.UUID, page, limit int) ([]dto.ClientResponse, int64, error)
	UpdateClient(ctx context.Context, userID, id uuid.UUID, req dto.UpdateClientRequest) (*dto.ClientResponse, error)
	DeleteClient(ctx context.Context, userID, id uuid.UUID) error
}

type clientService struct {
	repo repository.ClientRepository
}

func NewClientService(repo repository.ClientRepository) ClientService {
	return &clientService{repo: repo}
}

func (s *clientService) CreateClient(ctx context.Context, userID uuid.UUID, req dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if _, ok := refdata.DocumentTypeByCode(req.TaxIDType); !ok {
		return nil, fmt.Errorf("%w: unknown tax_id_type %q", ErrInvalidInput, req.TaxIDType)
	}
	if !refdata.IsValidIVACondition(req.IVACondition) {
		return nil, fmt.Errorf("%w: unknown iva_condition %d", ErrInvalidInput, req.IVACondition)
	}
	if existing, err := s.repo.FindByUserAndTaxID(ctx, userID, req.TaxID); err == nil && existing.IsActive {
		return nil, fmt.Errorf("%w: a client with tax id %s already exists", ErrDuplicate, req.TaxID)
	}

	client := &model.Client{
		UserID:       userID,
		TaxID:        req.TaxID,
		TaxIDType:    req.TaxIDType,
		Name:         req.Name,
		Email:        req.Email,
		Address:      req.Address,
		IVACondition: req.IVACondition,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return clientToResponse(client), nil
}

func (s *clientService) GetClient(ctx context.Context, userID, id uuid.UUID) (*dto.ClientResponse, error) {
	client, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return clientToResponse(client), nil
}

func (s *clientService) ListClients(ctx context.Context, userID uuid.UUID, page, limit int) ([]dto.ClientResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	clients, total, err := s.repo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.ClientResponse, len(clients))
	for i := range clients {
		resp[i] = *clientToResponse(&clients[i])
	}
	return resp, total, nil
}

func (s *clientService) UpdateClient(ctx context.Context, userID, id uuid.UUID, req dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	client, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.TaxID != nil {
		client.TaxID = *req.TaxID
	}
	if req.TaxIDType != nil {
		if _, ok := refdata.DocumentTypeByCode(*req.TaxIDType); !ok {
			return nil, fmt.Errorf("%w: unknown tax_id_type %q", ErrInvalidInput, *req.TaxIDType)
		}
		client.TaxIDType = *req.TaxIDType
	}
	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Email != nil {
		client.Email = req.Email
	}
	if req.Address != nil {
		client.Address = req.Address
	}
	if req.IVACondition != nil {
		if !refdata.IsValidIVACondition(*req.IVACondition) {
			return nil, fmt.Errorf("%w: unknown iva_condition %d", ErrInvalidInput, *req.IVACondition)
		}
		client.IVACondition = *req.IVACondition
	}
	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return clientToResponse(client), nil
}

func (s *clientService) DeleteClient(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *clientService) findOwned(ctx context.Context, userID, id uuid.UUID) (*model.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil || client.UserID != userID {
		return nil, fmt.Errorf("%w: client", ErrNotFound)
	}
	return client, nil
}

func clientToResponse(c *model.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:           c.ID.String(),
		TaxID:        c.TaxID,
		TaxIDType:    c.TaxIDType,
		Name:         c.Name,
		Email:        c.Email,
		Address:      c.Address,
		IVACondition: c.IVACondition,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
}
