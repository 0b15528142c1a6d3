package repository

import (
	"context"

	"transit-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LiquidationRepository interface {
	// ReplaceForArticle swaps the article's liquidation rows wholesale.
	// Calculation is all-or-nothing per call, so partial rows never persist.
	ReplaceForArticle(ctx context.Context, articleID uuid.UUID, rows []model.TaxLiquidation) error
	DeleteForArticle(ctx context.Context, articleID uuid.UUID) error
	ListForArticle(ctx context.Context, articleID uuid.UUID) ([]model.TaxLiquidation, error)
}

type liquidationRepository struct {
	db *gorm.DB
}

func NewLiquidationRepository(db *gorm.DB) LiquidationRepository {
	return &liquidationRepository{db: db}
}

func (r *liquidationRepository) ReplaceForArticle(ctx context.Context, articleID uuid.UUID, rows []model.TaxLiquidation) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("article_id = ?", articleID).Delete(&model.TaxLiquidation{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Create(&rows).Error
}

func (r *liquidationRepository) DeleteForArticle(ctx context.Context, articleID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("article_id = ?", articleID).Delete(&model.TaxLiquidation{}).Error
}

func (r *liquidationRepository) ListForArticle(ctx context.Context, articleID uuid.UUID) ([]model.TaxLiquidation, error) {
	var rows []model.TaxLiquidation
	if err := GetDB(ctx, r.db).
		Where("article_id = ?", articleID).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
