package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"knowledge-base/models"
)

type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error)
	// GetByIDForUpdate loads the article and holds a row lock on it until
	// the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Article, error)
	List(ctx context.Context, params models.ArticleListParams) ([]models.Article, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	return translate("create article", r.db.WithContext(ctx).Omit(clause.Associations).Create(article).Error)
}

func (r *articleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).
		Preload("Author").
		First(&article, "id = ?", id).Error
	if err != nil {
		return nil, translate("get article", err)
	}
	return &article, nil
}

func (r *articleRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&article, "id = ?", id).Error
	if err != nil {
		return nil, translate("lock article", err)
	}
	return &article, nil
}

func (r *articleRepository) List(ctx context.Context, params models.ArticleListParams) ([]models.Article, error) {
	var articles []models.Article

	query := r.db.WithContext(ctx).Model(&models.Article{}).Preload("Author")
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	err := query.Order("created_at desc").Find(&articles).Error
	if err != nil {
		return nil, translate("list articles", err)
	}
	return articles, nil
}

func (r *articleRepository) Update(ctx context.Context, article *models.Article) error {
	res := r.db.WithContext(ctx).
		Model(article).
		Select("title", "content", "status", "updated_at").
		Updates(article)
	if res.Error != nil {
		return translate("update article", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *articleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Article{}, "id = ?", id)
	if res.Error != nil {
		return translate("delete article", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
