package repository

import (
	"context"

	"transit-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TiersRepository interface {
	Create(ctx context.Context, tiers *model.Tiers) error
	Update(ctx context.Context, tiers *model.Tiers) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tiers, error)
	List(ctx context.Context, tiersType, search string, page, limit int) ([]model.Tiers, int64, error)
	DeleteAddressesByTiersID(ctx context.Context, tiersID uuid.UUID) error
	CreateAddresses(ctx context.Context, addresses []model.TiersAddress) error
}

type tiersRepository struct {
	db *gorm.DB
}

func NewTiersRepository(db *gorm.DB) TiersRepository {
	return &tiersRepository{db: db}
}

func (r *tiersRepository) Create(ctx context.Context, tiers *model.Tiers) error {
	return GetDB(ctx, r.db).Create(tiers).Error
}

func (r *tiersRepository) Update(ctx context.Context, tiers *model.Tiers) error {
	return GetDB(ctx, r.db).Save(tiers).Error
}

func (r *tiersRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Tiers{}).Error
}

func (r *tiersRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tiers, error) {
	var tiers model.Tiers
	if err := GetDB(ctx, r.db).Preload("Addresses").First(&tiers, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tiers, nil
}

func (r *tiersRepository) List(ctx context.Context, tiersType, search string, page, limit int) ([]model.Tiers, int64, error) {
	var tiers []model.Tiers
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Tiers{})
	if tiersType != "" {
		query = query.Where("type = ?", tiersType)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR company_name ILIKE ? OR tax_code ILIKE ?", pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Addresses").Order("name asc").Offset(offset).Limit(limit).Find(&tiers).Error; err != nil {
		return nil, 0, err
	}

	return tiers, total, nil
}

func (r *tiersRepository) DeleteAddressesByTiersID(ctx context.Context, tiersID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("tiers_id = ?", tiersID).Delete(&model.TiersAddress{}).Error
}

func (r *tiersRepository) CreateAddresses(ctx context.Context, addresses []model.TiersAddress) error {
	if len(addresses) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&addresses).Error
}
