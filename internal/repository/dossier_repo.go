package repository

import (
	"context"

	"transit-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DossierListFilter struct {
	Status    string
	Direction string
	DossierNo string
	ClientID  *uuid.UUID
	Page      int
	Limit     int
}

type DossierRepository interface {
	Create(ctx context.Context, dossier *model.Dossier) error
	Update(ctx context.Context, dossier *model.Dossier) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Dossier, error)
	List(ctx context.Context, filter DossierListFilter) ([]model.Dossier, int64, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
	CreateOrder(ctx context.Context, order *model.TransitOrder) error
	UpdateOrder(ctx context.Context, order *model.TransitOrder) error
	FindOrderByID(ctx context.Context, id uuid.UUID) (*model.TransitOrder, error)
	ListOrders(ctx context.Context, dossierID uuid.UUID) ([]model.TransitOrder, error)
}

type dossierRepository struct {
	db *gorm.DB
}

func NewDossierRepository(db *gorm.DB) DossierRepository {
	return &dossierRepository{db: db}
}

func (r *dossierRepository) Create(ctx context.Context, dossier *model.Dossier) error {
	return GetDB(ctx, r.db).Create(dossier).Error
}

func (r *dossierRepository) Update(ctx context.Context, dossier *model.Dossier) error {
	return GetDB(ctx, r.db).Save(dossier).Error
}

func (r *dossierRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Dossier, error) {
	var dossier model.Dossier
	if err := GetDB(ctx, r.db).
		Preload("Client").
		Preload("Declarant").
		Preload("Orders").
		First(&dossier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dossier, nil
}

func (r *dossierRepository) List(ctx context.Context, filter DossierListFilter) ([]model.Dossier, int64, error) {
	var dossiers []model.Dossier
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Dossier{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.DossierNo != "" {
		query = query.Where("dossier_no ILIKE ?", "%"+filter.DossierNo+"%")
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Preload("Client").
		Preload("Declarant").
		Order("created_at desc").
		Offset(offset).Limit(filter.Limit).
		Find(&dossiers).Error; err != nil {
		return nil, 0, err
	}

	return dossiers, total, nil
}

func (r *dossierRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).
		Model(&model.Dossier{}).
		Where("dossier_no LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *dossierRepository) CreateOrder(ctx context.Context, order *model.TransitOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *dossierRepository) UpdateOrder(ctx context.Context, order *model.TransitOrder) error {
	return GetDB(ctx, r.db).Save(order).Error
}

func (r *dossierRepository) FindOrderByID(ctx context.Context, id uuid.UUID) (*model.TransitOrder, error) {
	var order model.TransitOrder
	if err := GetDB(ctx, r.db).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *dossierRepository) ListOrders(ctx context.Context, dossierID uuid.UUID) ([]model.TransitOrder, error) {
	var orders []model.TransitOrder
	if err := GetDB(ctx, r.db).
		Where("dossier_id = ?", dossierID).
		Order("created_at asc").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
