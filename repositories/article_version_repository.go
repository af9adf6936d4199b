package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"knowledge-base/models"
)

// ArticleVersionRepository is append-only: versions are never updated or
// deleted through it.
type ArticleVersionRepository interface {
	Create(ctx context.Context, version *models.ArticleVersion) error
	MaxVersionNumber(ctx context.Context, articleID uuid.UUID) (int, error)
	ListByArticle(ctx context.Context, articleID uuid.UUID) ([]models.ArticleVersion, error)
	GetByNumber(ctx context.Context, articleID uuid.UUID, number int) (*models.ArticleVersion, error)
}

type articleVersionRepository struct {
	db *gorm.DB
}

func NewArticleVersionRepository(db *gorm.DB) ArticleVersionRepository {
	return &articleVersionRepository{db: db}
}

func (r *articleVersionRepository) Create(ctx context.Context, version *models.ArticleVersion) error {
	return translate("create article version", r.db.WithContext(ctx).Create(version).Error)
}

func (r *articleVersionRepository) MaxVersionNumber(ctx context.Context, articleID uuid.UUID) (int, error) {
	var latest int
	err := r.db.WithContext(ctx).
		Model(&models.ArticleVersion{}).
		Where("article_id = ?", articleID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&latest).Error
	if err != nil {
		return 0, translate("max version number", err)
	}
	return latest, nil
}

func (r *articleVersionRepository) ListByArticle(ctx context.Context, articleID uuid.UUID) ([]models.ArticleVersion, error) {
	var versions []models.ArticleVersion
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("version_number desc").
		Find(&versions).Error
	if err != nil {
		return nil, translate("list article versions", err)
	}
	return versions, nil
}

func (r *articleVersionRepository) GetByNumber(ctx context.Context, articleID uuid.UUID, number int) (*models.ArticleVersion, error) {
	var version models.ArticleVersion
	err := r.db.WithContext(ctx).
		Where("article_id = ? AND version_number = ?", articleID, number).
		First(&version).Error
	if err != nil {
		return nil, translate("get article version", err)
	}
	return &version, nil
}
