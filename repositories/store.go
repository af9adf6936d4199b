package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"knowledge-base/models"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when an insert violates a unique index,
	// in particular (article_id, version_number) on article_versions.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Store groups the repositories and runs them inside a single transaction.
type Store interface {
	Users() UserRepository
	Articles() ArticleRepository
	Versions() ArticleVersionRepository
	Comments() CommentRepository
	// Transaction runs fn against a store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository { return NewUserRepository(s.db) }

func (s *gormStore) Articles() ArticleRepository { return NewArticleRepository(s.db) }

func (s *gormStore) Versions() ArticleVersionRepository { return NewArticleVersionRepository(s.db) }

func (s *gormStore) Comments() CommentRepository { return NewCommentRepository(s.db) }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
	if err == nil {
		return nil
	}
	// Errors produced by fn are already translated; anything else came from
	// begin/commit.
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateKey) || models.KindOf(err) != "" {
		return err
	}
	return translate("transaction", err)
}

// AutoMigrate creates or updates the schema, including the foreign keys
// with ON DELETE CASCADE declared on the models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Article{}, &models.ArticleVersion{}, &models.Comment{})
}

// translate maps gorm errors onto the repository sentinels. Anything not
// recognized is an infrastructure failure the caller may retry.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.NewTransientError(op+": request timed out", err)
	default:
		return models.NewTransientError(op+" failed", err)
	}
}
