package repository

import (
	"context"

	"transit-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CotationRepository interface {
	Create(ctx context.Context, request *model.CotationRequest) error
	Update(ctx context.Context, request *model.CotationRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CotationRequest, error)
	List(ctx context.Context, status string, page, limit int) ([]model.CotationRequest, int64, error)
	FindPendingByDossier(ctx context.Context, dossierID uuid.UUID) (*model.CotationRequest, error)
}

type cotationRepository struct {
	db *gorm.DB
}

func NewCotationRepository(db *gorm.DB) CotationRepository {
	return &cotationRepository{db: db}
}

func (r *cotationRepository) Create(ctx context.Context, request *model.CotationRequest) error {
	return GetDB(ctx, r.db).Create(request).Error
}

func (r *cotationRepository) Update(ctx context.Context, request *model.CotationRequest) error {
	return GetDB(ctx, r.db).Save(request).Error
}

func (r *cotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CotationRequest, error) {
	var request model.CotationRequest
	if err := GetDB(ctx, r.db).
		Preload("Dossier").
		Preload("Requester").
		Preload("Declarant").
		First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *cotationRepository) List(ctx context.Context, status string, page, limit int) ([]model.CotationRequest, int64, error) {
	var requests []model.CotationRequest
	var total int64

	query := GetDB(ctx, r.db).Model(&model.CotationRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Dossier").
		Preload("Requester").
		Preload("Declarant").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *cotationRepository) FindPendingByDossier(ctx context.Context, dossierID uuid.UUID) (*model.CotationRequest, error) {
	var request model.CotationRequest
	if err := GetDB(ctx, r.db).
		Where("dossier_id = ? AND status = ?", dossierID, model.CotationPending).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}
