package repository

import (
	"context"

	"transit-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TariffRepository interface {
	Create(ctx context.Context, product *model.TariffProduct) error
	Update(ctx context.Context, product *model.TariffProduct) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TariffProduct, error)
	FindByNTSCode(ctx context.Context, ntsCode string) (*model.TariffProduct, error)
	Search(ctx context.Context, term string, page, limit int) ([]model.TariffProduct, int64, error)
}

type tariffRepository struct {
	db *gorm.DB
}

func NewTariffRepository(db *gorm.DB) TariffRepository {
	return &tariffRepository{db: db}
}

func (r *tariffRepository) Create(ctx context.Context, product *model.TariffProduct) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *tariffRepository) Update(ctx context.Context, product *model.TariffProduct) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *tariffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TariffProduct{}).Error
}

func (r *tariffRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TariffProduct, error) {
	var product model.TariffProduct
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *tariffRepository) FindByNTSCode(ctx context.Context, ntsCode string) (*model.TariffProduct, error) {
	var product model.TariffProduct
	if err := GetDB(ctx, r.db).First(&product, "nts_code = ?", ntsCode).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *tariffRepository) Search(ctx context.Context, term string, page, limit int) ([]model.TariffProduct, int64, error) {
	var products []model.TariffProduct
	var total int64

	query := GetDB(ctx, r.db).Model(&model.TariffProduct{})
	if term != "" {
		pattern := "%" + term + "%"
		query = query.Where("nts_code ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("nts_code asc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
