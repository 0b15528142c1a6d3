package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transit-backend/internal/model"
	"transit-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateTaxDefinitionRequest struct {
	NTSCode  string `json:"nts_code" binding:"required"`
	TaxCode  string `json:"tax_code" binding:"required"`
	Label    string `json:"label" binding:"required"`
	Rate     string `json:"rate" binding:"required"`
	BaseType string `json:"base_type" binding:"required"`
	Sequence int    `json:"sequence"`
}

type UpdateTaxDefinitionRequest struct {
	Label    *string `json:"label"`
	Rate     *string `json:"rate"`
	BaseType *string `json:"base_type"`
	Sequence *int    `json:"sequence"`
}

type TaxDefinitionResponse struct {
	ID        uuid.UUID `json:"id"`
	NTSCode   string    `json:"nts_code"`
	TaxCode   string    `json:"tax_code"`
	Label     string    `json:"label"`
	Rate      string    `json:"rate"`
	BaseType  string    `json:"base_type"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// --- Interface ---

type TaxService interface {
	CreateTax(ctx context.Context, req CreateTaxDefinitionRequest) (TaxDefinitionResponse, error)
	UpdateTax(ctx context.Context, id string, req UpdateTaxDefinitionRequest) (TaxDefinitionResponse, error)
	DeleteTax(ctx context.Context, id string) error
	GetSchedule(ctx context.Context, ntsCode string) ([]TaxDefinitionResponse, error)
	ListTaxes(ctx context.Context, page, limit int) ([]TaxDefinitionResponse, int64, error)
}

// --- Implementation ---

type taxService struct {
	taxRepo repository.TaxRepository
}

func NewTaxService(taxRepo repository.TaxRepository) TaxService {
	return &taxService{taxRepo: taxRepo}
}

func validateBaseType(baseType string) error {
	if baseType != model.TaxBaseCIF && baseType != model.TaxBaseCIFCumTax {
		return fmt.Errorf("base_type must be %s or %s", model.TaxBaseCIF, model.TaxBaseCIFCumTax)
	}
	return nil
}

func parseTaxRate(value string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate: %w", err)
	}
	if rate.IsNegative() {
		return decimal.Zero, errors.New("rate must not be negative")
	}
	return rate, nil
}

func (s *taxService) CreateTax(ctx context.Context, req CreateTaxDefinitionRequest) (TaxDefinitionResponse, error) {
	if err := validateBaseType(req.BaseType); err != nil {
		return TaxDefinitionResponse{}, err
	}
	rate, err := parseTaxRate(req.Rate)
	if err != nil {
		return TaxDefinitionResponse{}, err
	}

	def := &model.TaxDefinition{
		NTSCode:  req.NTSCode,
		TaxCode:  req.TaxCode,
		Label:    req.Label,
		Rate:     rate,
		BaseType: req.BaseType,
		Sequence: req.Sequence,
	}
	if err := s.taxRepo.Create(ctx, def); err != nil {
		return TaxDefinitionResponse{}, err
	}
	return mapToTaxResponse(def), nil
}

func (s *taxService) UpdateTax(ctx context.Context, id string, req UpdateTaxDefinitionRequest) (TaxDefinitionResponse, error) {
	taxID, err := uuid.Parse(id)
	if err != nil {
		return TaxDefinitionResponse{}, errors.New("invalid tax id")
	}

	def, err := s.taxRepo.FindByID(ctx, taxID)
	if err != nil {
		return TaxDefinitionResponse{}, errors.New("tax definition not found")
	}

	if req.Label != nil {
		def.Label = *req.Label
	}
	if req.Rate != nil {
		rate, err := parseTaxRate(*req.Rate)
		if err != nil {
			return TaxDefinitionResponse{}, err
		}
		def.Rate = rate
	}
	if req.BaseType != nil {
		if err := validateBaseType(*req.BaseType); err != nil {
			return TaxDefinitionResponse{}, err
		}
		def.BaseType = *req.BaseType
	}
	if req.Sequence != nil {
		def.Sequence = *req.Sequence
	}

	if err := s.taxRepo.Update(ctx, def); err != nil {
		return TaxDefinitionResponse{}, err
	}
	return mapToTaxResponse(def), nil
}

func (s *taxService) DeleteTax(ctx context.Context, id string) error {
	taxID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid tax id")
	}
	return s.taxRepo.Delete(ctx, taxID)
}

func (s *taxService) GetSchedule(ctx context.Context, ntsCode string) ([]TaxDefinitionResponse, error) {
	defs, err := s.taxRepo.ScheduleForNTSCode(ctx, ntsCode)
	if err != nil {
		return nil, err
	}

	responses := make([]TaxDefinitionResponse, 0, len(defs))
	for i := range defs {
		responses = append(responses, mapToTaxResponse(&defs[i]))
	}
	return responses, nil
}

func (s *taxService) ListTaxes(ctx context.Context, page, limit int) ([]TaxDefinitionResponse, int64, error) {
	defs, total, err := s.taxRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TaxDefinitionResponse, 0, len(defs))
	for i := range defs {
		responses = append(responses, mapToTaxResponse(&defs[i]))
	}
	return responses, total, nil
}

// --- Helpers ---

func mapToTaxResponse(d *model.TaxDefinition) TaxDefinitionResponse {
	return TaxDefinitionResponse{
		ID:        d.ID,
		NTSCode:   d.NTSCode,
		TaxCode:   d.TaxCode,
		Label:     d.Label,
		Rate:      d.Rate.String(),
		BaseType:  d.BaseType,
		Sequence:  d.Sequence,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
