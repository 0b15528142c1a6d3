package repository

import (
	"context"

	"transit-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CurrencyRepository interface {
	Create(ctx context.Context, currency *model.Currency) error
	Update(ctx context.Context, currency *model.Currency) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Currency, error)
	FindByCode(ctx context.Context, code string) (*model.Currency, error)
	ListAll(ctx context.Context) ([]model.Currency, error)
}

type currencyRepository struct {
	db *gorm.DB
}

func NewCurrencyRepository(db *gorm.DB) CurrencyRepository {
	return &currencyRepository{db: db}
}

func (r *currencyRepository) Create(ctx context.Context, currency *model.Currency) error {
	return GetDB(ctx, r.db).Create(currency).Error
}

func (r *currencyRepository) Update(ctx context.Context, currency *model.Currency) error {
	return GetDB(ctx, r.db).Save(currency).Error
}

func (r *currencyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Currency, error) {
	var currency model.Currency
	if err := GetDB(ctx, r.db).First(&currency, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &currency, nil
}

func (r *currencyRepository) FindByCode(ctx context.Context, code string) (*model.Currency, error) {
	var currency model.Currency
	if err := GetDB(ctx, r.db).First(&currency, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &currency, nil
}

func (r *currencyRepository) ListAll(ctx context.Context) ([]model.Currency, error) {
	var currencies []model.Currency
	if err := GetDB(ctx, r.db).Order("code asc").Find(&currencies).Error; err != nil {
		return nil, err
	}
	return currencies, nil
}
