package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"knowledge-base/models"
	"knowledge-base/repositories"
	"knowledge-base/repositories/memstore"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// serviceSuite wires the services over a fresh in-memory store per test.
type serviceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *memstore.Store
	versioning *VersioningEngine
	articles   ArticleService
	comments   CommentService
	users      UserService

	admin   *models.Identity
	editor  *models.Identity
	editor2 *models.Identity
	viewer  *models.Identity
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memstore.New()
	s.versioning = NewVersioningEngine(5, testLogger)
	s.versioning.backoff = time.Millisecond
	s.articles = NewArticleService(s.store, s.versioning, ArticleServiceOptions{}, testLogger)
	s.comments = NewCommentService(s.store, testLogger)
	s.users = NewUserService(s.store.Users(), testLogger)

	s.admin = s.createUser("admin@example.com", models.RoleAdmin)
	s.editor = s.createUser("editor@example.com", models.RoleEditor)
	s.editor2 = s.createUser("editor2@example.com", models.RoleEditor)
	s.viewer = s.createUser("viewer@example.com", models.RoleViewer)
}

func (s *serviceSuite) createUser(email string, role models.UserRole) *models.Identity {
	user := &models.User{Email: email, Password: "hashed", Role: role}
	s.Require().NoError(s.store.Users().Create(s.ctx, user))
	return models.NewIdentity(user)
}

func (s *serviceSuite) createArticle(actor *models.Identity, title, content string) *models.Article {
	article, err := s.articles.CreateArticle(s.ctx, actor, title, content)
	s.Require().NoError(err)
	return article
}

func (s *serviceSuite) setStatus(actor *models.Identity, article *models.Article, status models.ArticleStatus) *models.Article {
	updated, err := s.articles.UpdateArticle(s.ctx, actor, article.ID, models.ArticleChanges{Status: &status})
	s.Require().NoError(err)
	return updated
}

func (s *serviceSuite) versionNumbers(article *models.Article) []int {
	versions, err := s.articles.ListVersions(s.ctx, nil, article.ID)
	s.Require().NoError(err)
	numbers := make([]int, len(versions))
	for i, v := range versions {
		numbers[i] = v.VersionNumber
	}
	return numbers
}

func (s *serviceSuite) assertKind(err error, kind models.ErrorKind) {
	s.T().Helper()
	s.Require().Error(err)
	s.Equal(kind, models.KindOf(err), "unexpected error: %v", err)
}

func ptr[T any](v T) *T { return &v }

// conflictingStore makes the next n version inserts fail as if another
// writer had taken the number first.
type conflictingStore struct {
	repositories.Store
	remaining *int32
}

func newConflictingStore(inner repositories.Store, n int32) *conflictingStore {
	return &conflictingStore{Store: inner, remaining: &n}
}

func (s *conflictingStore) Versions() repositories.ArticleVersionRepository {
	return &conflictingVersions{ArticleVersionRepository: s.Store.Versions(), remaining: s.remaining}
}

func (s *conflictingStore) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repositories.Store) error {
		return fn(&conflictingStore{Store: tx, remaining: s.remaining})
	})
}

type conflictingVersions struct {
	repositories.ArticleVersionRepository
	remaining *int32
}

func (v *conflictingVersions) Create(ctx context.Context, version *models.ArticleVersion) error {
	if atomic.AddInt32(v.remaining, -1) >= 0 {
		return fmt.Errorf("create article version: %w", repositories.ErrDuplicateKey)
	}
	return v.ArticleVersionRepository.Create(ctx, version)
}

// failingReloadStore fails the read-back of an article inside a
// transaction, after the version row has been written.
type failingReloadStore struct {
	repositories.Store
}

func (s *failingReloadStore) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repositories.Store) error {
		return fn(&failingReloadTx{Store: tx})
	})
}

type failingReloadTx struct {
	repositories.Store
}

func (t *failingReloadTx) Articles() repositories.ArticleRepository {
	return &failingReloadArticles{ArticleRepository: t.Store.Articles()}
}

type failingReloadArticles struct {
	repositories.ArticleRepository
}

func (a *failingReloadArticles) GetByID(context.Context, uuid.UUID) (*models.Article, error) {
	return nil, models.NewTransientError("get article", errors.New("connection reset"))
}
