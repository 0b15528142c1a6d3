package repository

import (
	"context"

	"transit-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaxRepository interface {
	Create(ctx context.Context, def *model.TaxDefinition) error
	Update(ctx context.Context, def *model.TaxDefinition) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxDefinition, error)
	// ScheduleForNTSCode returns the applicable taxes ordered by sequence,
	// which cumulative bases rely on.
	ScheduleForNTSCode(ctx context.Context, ntsCode string) ([]model.TaxDefinition, error)
	List(ctx context.Context, page, limit int) ([]model.TaxDefinition, int64, error)
}

type taxRepository struct {
	db *gorm.DB
}

func NewTaxRepository(db *gorm.DB) TaxRepository {
	return &taxRepository{db: db}
}

func (r *taxRepository) Create(ctx context.Context, def *model.TaxDefinition) error {
	return GetDB(ctx, r.db).Create(def).Error
}

func (r *taxRepository) Update(ctx context.Context, def *model.TaxDefinition) error {
	return GetDB(ctx, r.db).Save(def).Error
}

func (r *taxRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TaxDefinition{}).Error
}

func (r *taxRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxDefinition, error) {
	var def model.TaxDefinition
	if err := GetDB(ctx, r.db).First(&def, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *taxRepository) ScheduleForNTSCode(ctx context.Context, ntsCode string) ([]model.TaxDefinition, error) {
	var defs []model.TaxDefinition
	if err := GetDB(ctx, r.db).
		Where("nts_code = ?", ntsCode).
		Order("sequence asc").
		Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *taxRepository) List(ctx context.Context, page, limit int) ([]model.TaxDefinition, int64, error) {
	var defs []model.TaxDefinition
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.TaxDefinition{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("nts_code asc, sequence asc").Offset(offset).Limit(limit).Find(&defs).Error; err != nil {
		return nil, 0, err
	}

	return defs, total, nil
}
