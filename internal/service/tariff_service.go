package service

import (
	"context"
	"errors"
	"time"

	"transit-backend/internal/model"
	"transit-backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateTariffProductRequest struct {
	NTSCode     string `json:"nts_code" binding:"required"`
	Description string `json:"description" binding:"required"`
	UnitCode    string `json:"unit_code"`
}

type UpdateTariffProductRequest struct {
	Description *string `json:"description"`
	UnitCode    *string `json:"unit_code"`
}

type TariffProductResponse struct {
	ID          uuid.UUID `json:"id"`
	NTSCode     string    `json:"nts_code"`
	Description string    `json:"description"`
	UnitCode    string    `json:"unit_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Interface ---

type TariffService interface {
	CreateProduct(ctx context.Context, req CreateTariffProductRequest) (TariffProductResponse, error)
	UpdateProduct(ctx context.Context, id string, req UpdateTariffProductRequest) (TariffProductResponse, error)
	DeleteProduct(ctx context.Context, id string) error
	LookupByNTSCode(ctx context.Context, ntsCode string) (TariffProductResponse, error)
	SearchProducts(ctx context.Context, term string, page, limit int) ([]TariffProductResponse, int64, error)
}

// --- Implementation ---

type tariffService struct {
	tariffRepo repository.TariffRepository
}

func NewTariffService(tariffRepo repository.TariffRepository) TariffService {
	return &tariffService{tariffRepo: tariffRepo}
}

func (s *tariffService) CreateProduct(ctx context.Context, req CreateTariffProductRequest) (TariffProductResponse, error) {
	if _, err := s.tariffRepo.FindByNTSCode(ctx, req.NTSCode); err == nil {
		return TariffProductResponse{}, errors.New("tariff code already exists")
	}

	product := &model.TariffProduct{
		NTSCode:     req.NTSCode,
		Description: req.Description,
		UnitCode:    req.UnitCode,
	}
	if err := s.tariffRepo.Create(ctx, product); err != nil {
		return TariffProductResponse{}, err
	}
	return mapToTariffResponse(product), nil
}

func (s *tariffService) UpdateProduct(ctx context.Context, id string, req UpdateTariffProductRequest) (TariffProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return TariffProductResponse{}, errors.New("invalid product id")
	}

	product, err := s.tariffRepo.FindByID(ctx, productID)
	if err != nil {
		return TariffProductResponse{}, errors.New("tariff product not found")
	}

	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.UnitCode != nil {
		product.UnitCode = *req.UnitCode
	}

	if err := s.tariffRepo.Update(ctx, product); err != nil {
		return TariffProductResponse{}, err
	}
	return mapToTariffResponse(product), nil
}

func (s *tariffService) DeleteProduct(ctx context.Context, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid product id")
	}
	return s.tariffRepo.Delete(ctx, productID)
}

func (s *tariffService) LookupByNTSCode(ctx context.Context, ntsCode string) (TariffProductResponse, error) {
	product, err := s.tariffRepo.FindByNTSCode(ctx, ntsCode)
	if err != nil {
		return TariffProductResponse{}, errors.New("tariff code not found")
	}
	return mapToTariffResponse(product), nil
}

func (s *tariffService) SearchProducts(ctx context.Context, term string, page, limit int) ([]TariffProductResponse, int64, error) {
	products, total, err := s.tariffRepo.Search(ctx, term, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TariffProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, mapToTariffResponse(&products[i]))
	}
	return responses, total, nil
}

// --- Helpers ---

func mapToTariffResponse(p *model.TariffProduct) TariffProductResponse {
	return TariffProductResponse{
		ID:          p.ID,
		NTSCode:     p.NTSCode,
		Description: p.Description,
		UnitCode:    p.UnitCode,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
