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

type CreateCurrencyRequest struct {
	Code            string `json:"code" binding:"required"`
	Symbol          string `json:"symbol" binding:"required"`
	Label           string `json:"label"`
	RateToReference string `json:"rate_to_reference" binding:"required"`
	IsReference     bool   `json:"is_reference"`
}

type UpdateCurrencyRequest struct {
	Symbol          *string `json:"symbol"`
	Label           *string `json:"label"`
	RateToReference *string `json:"rate_to_reference"`
}

type CurrencyResponse struct {
	ID              uuid.UUID `json:"id"`
	Code            string    `json:"code"`
	Symbol          string    `json:"symbol"`
	Label           string    `json:"label"`
	RateToReference string    `json:"rate_to_reference"`
	IsReference     bool      `json:"is_reference"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// --- Interface ---

type CurrencyService interface {
	CreateCurrency(ctx context.Context, req CreateCurrencyRequest) (CurrencyResponse, error)
	UpdateCurrency(ctx context.Context, id string, req UpdateCurrencyRequest) (CurrencyResponse, error)
	ListCurrencies(ctx context.Context) ([]CurrencyResponse, error)
}

// --- Implementation ---

type currencyService struct {
	currencyRepo repository.CurrencyRepository
}

func NewCurrencyService(currencyRepo repository.CurrencyRepository) CurrencyService {
	return &currencyService{currencyRepo: currencyRepo}
}

func (s *currencyService) CreateCurrency(ctx context.Context, req CreateCurrencyRequest) (CurrencyResponse, error) {
	rate, err := parseRate(req.RateToReference)
	if err != nil {
		return CurrencyResponse{}, err
	}
	if req.IsReference && !rate.Equal(decimal.NewFromInt(1)) {
		return CurrencyResponse{}, errors.New("reference currency must have a rate of 1")
	}

	if _, err := s.currencyRepo.FindByCode(ctx, req.Code); err == nil {
		return CurrencyResponse{}, fmt.Errorf("currency %s already exists", req.Code)
	}

	currency := &model.Currency{
		Code:            req.Code,
		Symbol:          req.Symbol,
		Label:           req.Label,
		RateToReference: rate,
		IsReference:     req.IsReference,
	}
	if err := s.currencyRepo.Create(ctx, currency); err != nil {
		return CurrencyResponse{}, err
	}
	return mapToCurrencyResponse(currency), nil
}

func (s *currencyService) UpdateCurrency(ctx context.Context, id string, req UpdateCurrencyRequest) (CurrencyResponse, error) {
	currencyID, err := uuid.Parse(id)
	if err != nil {
		return CurrencyResponse{}, errors.New("invalid currency id")
	}

	currency, err := s.currencyRepo.FindByID(ctx, currencyID)
	if err != nil {
		return CurrencyResponse{}, errors.New("currency not found")
	}

	if req.Symbol != nil {
		currency.Symbol = *req.Symbol
	}
	if req.Label != nil {
		currency.Label = *req.Label
	}
	if req.RateToReference != nil {
		rate, err := parseRate(*req.RateToReference)
		if err != nil {
			return CurrencyResponse{}, err
		}
		if currency.IsReference && !rate.Equal(decimal.NewFromInt(1)) {
			return CurrencyResponse{}, errors.New("reference currency must have a rate of 1")
		}
		currency.RateToReference = rate
	}

	if err := s.currencyRepo.Update(ctx, currency); err != nil {
		return CurrencyResponse{}, err
	}
	return mapToCurrencyResponse(currency), nil
}

func (s *currencyService) ListCurrencies(ctx context.Context) ([]CurrencyResponse, error) {
	currencies, err := s.currencyRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]CurrencyResponse, 0, len(currencies))
	for i := range currencies {
		responses = append(responses, mapToCurrencyResponse(&currencies[i]))
	}
	return responses, nil
}

// --- Helpers ---

func parseRate(value string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate: %w", err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, errors.New("rate must be positive")
	}
	return rate, nil
}

func mapToCurrencyResponse(c *model.Currency) CurrencyResponse {
	return CurrencyResponse{
		ID:              c.ID,
		Code:            c.Code,
		Symbol:          c.Symbol,
		Label:           c.Label,
		RateToReference: c.RateToReference.String(),
		IsReference:     c.IsReference,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
