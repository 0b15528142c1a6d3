package repository

import (
	"context"

	"transit-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorksheetRepository interface {
	Create(ctx context.Context, worksheet *model.Worksheet) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Worksheet, error)
	ListByDossier(ctx context.Context, dossierID uuid.UUID) ([]model.Worksheet, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type worksheetRepository struct {
	db *gorm.DB
}

func NewWorksheetRepository(db *gorm.DB) WorksheetRepository {
	return &worksheetRepository{db: db}
}

func (r *worksheetRepository) Create(ctx context.Context, worksheet *model.Worksheet) error {
	return GetDB(ctx, r.db).Create(worksheet).Error
}

func (r *worksheetRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Worksheet, error) {
	var worksheet model.Worksheet
	if err := GetDB(ctx, r.db).
		Preload("Articles", func(db *gorm.DB) *gorm.DB {
			return db.Order("slot_index asc")
		}).
		First(&worksheet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &worksheet, nil
}

func (r *worksheetRepository) ListByDossier(ctx context.Context, dossierID uuid.UUID) ([]model.Worksheet, error) {
	var worksheets []model.Worksheet
	if err := GetDB(ctx, r.db).
		Where("dossier_id = ?", dossierID).
		Order("created_at asc").
		Find(&worksheets).Error; err != nil {
		return nil, err
	}
	return worksheets, nil
}

func (r *worksheetRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).
		Model(&model.Worksheet{}).
		Where("reference LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
