package repository

import (
	"context"
	"errors"

	"transit-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStaleArticle is returned when an update carries a revision that no
// longer matches the stored row: another session saved the article first.
var ErrStaleArticle = errors.New("article was modified by another session")

type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) error
	// UpdateChecked saves the article only when the stored revision still
	// matches article.Revision, then bumps the revision.
	UpdateChecked(ctx context.Context, article *model.Article) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Article, error)
	ListByWorksheet(ctx context.Context, worksheetID uuid.UUID) ([]model.Article, error)
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *model.Article) error {
	return GetDB(ctx, r.db).Create(article).Error
}

func (r *articleRepository) UpdateChecked(ctx context.Context, article *model.Article) error {
	expected := article.Revision
	article.Revision = expected + 1

	// Select("*") so zeroed fields (cleared amounts) are written too
	result := GetDB(ctx, r.db).
		Model(&model.Article{}).
		Where("id = ? AND revision = ?", article.ID, expected).
		Select("*").Omit("id", "created_at").
		Updates(article)
	if result.Error != nil {
		article.Revision = expected
		return result.Error
	}
	if result.RowsAffected == 0 {
		article.Revision = expected
		return ErrStaleArticle
	}
	return nil
}

func (r *articleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	var article model.Article
	if err := GetDB(ctx, r.db).First(&article, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) ListByWorksheet(ctx context.Context, worksheetID uuid.UUID) ([]model.Article, error) {
	var articles []model.Article
	if err := GetDB(ctx, r.db).
		Where("worksheet_id = ?", worksheetID).
		Order("slot_index asc").
		Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}
