package services

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"

	"knowledge-base/models"
	"knowledge-base/policy"
	"knowledge-base/repositories"
)

const maxTitleLength = 200

type ArticleService interface {
	ListArticles(ctx context.Context, actor *models.Identity, status *models.ArticleStatus) ([]models.Article, error)
	// GetArticle returns nil when the article does not exist or the caller
	// may not see it.
	GetArticle(ctx context.Context, actor *models.Identity, id uuid.UUID) (*models.Article, error)
	CreateArticle(ctx context.Context, actor *models.Identity, title, content string) (*models.Article, error)
	UpdateArticle(ctx context.Context, actor *models.Identity, id uuid.UUID, changes models.ArticleChanges) (*models.Article, error)
	RestoreVersion(ctx context.Context, actor *models.Identity, id uuid.UUID, versionNumber int) (*models.Article, error)
	DeleteArticle(ctx context.Context, actor *models.Identity, id uuid.UUID) error
	ListVersions(ctx context.Context, actor *models.Identity, articleID uuid.UUID) ([]models.ArticleVersion, error)
}

type ArticleServiceOptions struct {
	// AllowUnpublishedReads skips the read policy in GetArticle and
	// ListArticles. Signed-in callers then see every author's drafts in an
	// unfiltered listing too. Anonymous unfiltered listings stay limited to
	// published articles.
	AllowUnpublishedReads bool
}

type articleService struct {
	store      repositories.Store
	versioning *VersioningEngine
	opts       ArticleServiceOptions
	logger     *slog.Logger
}

func NewArticleService(store repositories.Store, versioning *VersioningEngine, opts ArticleServiceOptions, logger *slog.Logger) ArticleService {
	return &articleService{
		store:      store,
		versioning: versioning,
		opts:       opts,
		logger:     logger,
	}
}

func (s *articleService) ListArticles(ctx context.Context, actor *models.Identity, status *models.ArticleStatus) ([]models.Article, error) {
	params := models.ArticleListParams{Status: status}
	if status == nil && actor == nil {
		published := models.StatusPublished
		params.Status = &published
	}

	articles, err := s.store.Articles().List(ctx, params)
	if err != nil {
		return nil, err
	}
	if s.opts.AllowUnpublishedReads {
		return articles, nil
	}

	visible := articles[:0]
	for i := range articles {
		if policy.CanReadArticle(actor, &articles[i]) == nil {
			visible = append(visible, articles[i])
		}
	}
	return visible, nil
}

func (s *articleService) GetArticle(ctx context.Context, actor *models.Identity, id uuid.UUID) (*models.Article, error) {
	article, err := s.store.Articles().GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !s.opts.AllowUnpublishedReads && policy.CanReadArticle(actor, article) != nil {
		return nil, nil
	}
	return article, nil
}

func (s *articleService) CreateArticle(ctx context.Context, actor *models.Identity, title, content string) (*models.Article, error) {
	if err := validateArticleFields(&title, &content); err != nil {
		return nil, err
	}
	if err := policy.CanCreateArticle(actor); err != nil {
		return nil, err
	}

	var created *models.Article
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		article := &models.Article{
			Title:    title,
			Content:  content,
			AuthorID: actor.UserID,
			Status:   models.StatusPublished,
		}
		if err := tx.Articles().Create(ctx, article); err != nil {
			return err
		}
		if _, err := s.versioning.Seed(ctx, tx, article, actor.UserID); err != nil {
			return err
		}

		loaded, err := tx.Articles().GetByID(ctx, article.ID)
		if err != nil {
			return err
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, storeError(err, "article")
	}
	s.versioning.Committed(originSeed)

	s.logger.InfoContext(ctx, "article created", "article_id", created.ID, "author_id", actor.UserID)
	return created, nil
}

func (s *articleService) UpdateArticle(ctx context.Context, actor *models.Identity, id uuid.UUID, changes models.ArticleChanges) (*models.Article, error) {
	return s.update(ctx, actor, id, changes, originUpdate)
}

// RestoreVersion writes an earlier snapshot back as a regular update, so
// the restore itself becomes the newest version.
func (s *articleService) RestoreVersion(ctx context.Context, actor *models.Identity, id uuid.UUID, versionNumber int) (*models.Article, error) {
	version, err := s.store.Versions().GetByNumber(ctx, id, versionNumber)
	if err != nil {
		return nil, storeError(err, "article version")
	}

	changes := models.ArticleChanges{Title: &version.Title, Content: &version.Content}
	return s.update(ctx, actor, id, changes, originRestore)
}

func (s *articleService) update(ctx context.Context, actor *models.Identity, id uuid.UUID, changes models.ArticleChanges, origin string) (*models.Article, error) {
	if err := validateArticleFields(changes.Title, changes.Content); err != nil {
		return nil, err
	}
	if changes.Status != nil && !changes.Status.Valid() {
		return nil, models.NewValidationError("invalid input", map[string][]string{
			"status": {"status must be one of [draft published archived]"},
		})
	}

	current, err := s.store.Articles().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "article")
	}
	if err := policy.CanUpdateArticle(actor, current); err != nil {
		return nil, err
	}

	var updated *models.Article
	err = s.versioning.WithRetry(ctx, id, func() error {
		return s.store.Transaction(ctx, func(tx repositories.Store) error {
			locked, err := tx.Articles().GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := policy.CanUpdateArticle(actor, locked); err != nil {
				return err
			}

			changes.Apply(locked)
			if err := tx.Articles().Update(ctx, locked); err != nil {
				return err
			}
			if changes.AffectsContent() {
				if _, err := s.versioning.Append(ctx, tx, locked, actor.UserID); err != nil {
					return err
				}
			}

			loaded, err := tx.Articles().GetByID(ctx, id)
			if err != nil {
				return err
			}
			updated = loaded
			return nil
		})
	})
	if err != nil {
		return nil, storeError(err, "article")
	}
	if changes.AffectsContent() {
		s.versioning.Committed(origin)
	}

	s.logger.InfoContext(ctx, "article updated",
		"article_id", id, "actor_id", actor.UserID, "versioned", changes.AffectsContent())
	return updated, nil
}

func (s *articleService) DeleteArticle(ctx context.Context, actor *models.Identity, id uuid.UUID) error {
	if err := policy.CanDeleteArticle(actor); err != nil {
		return err
	}
	if err := s.store.Articles().Delete(ctx, id); err != nil {
		return storeError(err, "article")
	}

	s.logger.InfoContext(ctx, "article deleted", "article_id", id, "actor_id", actor.UserID)
	return nil
}

func (s *articleService) ListVersions(ctx context.Context, actor *models.Identity, articleID uuid.UUID) ([]models.ArticleVersion, error) {
	if err := policy.CanReadVersions(actor); err != nil {
		return nil, err
	}
	return s.store.Versions().ListByArticle(ctx, articleID)
}

// validateArticleFields enforces the title and content invariants on the
// fields that are present.
func validateArticleFields(title, content *string) error {
	fields := map[string][]string{}
	if title != nil {
		if *title == "" {
			fields["title"] = append(fields["title"], "title is required")
		} else if utf8.RuneCountInString(*title) > maxTitleLength {
			fields["title"] = append(fields["title"], "title must be a maximum of 200 characters in length")
		}
	}
	if content != nil && *content == "" {
		fields["content"] = append(fields["content"], "content is required")
	}
	if len(fields) > 0 {
		return models.NewValidationError("invalid input", fields)
	}
	return nil
}

// storeError maps repository sentinels onto API errors. Errors that are
// already structured pass through unchanged.
func storeError(err error, what string) error {
	switch {
	case models.KindOf(err) != "":
		return err
	case errors.Is(err, repositories.ErrNotFound):
		return models.NewNotFoundError(what + " not found")
	case errors.Is(err, repositories.ErrDuplicateKey):
		return models.NewConflictError(what+" already exists", err)
	default:
		return models.NewTransientError(what+" operation failed", err)
	}
}
