package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"knowledge-base/models"
	"knowledge-base/repositories"
)

const (
	originSeed    = "seed"
	originUpdate  = "update"
	originRestore = "restore"
)

// VersioningEngine maintains the append-only article version ledger.
//
// Numbering relies on the unique (article_id, version_number) index: a
// writer that loses a race gets repositories.ErrDuplicateKey, its whole
// transaction rolls back and WithRetry runs it again against the new max.
type VersioningEngine struct {
	retryLimit int
	backoff    time.Duration
	logger     *slog.Logger
}

func NewVersioningEngine(retryLimit int, logger *slog.Logger) *VersioningEngine {
	if retryLimit < 1 {
		retryLimit = 1
	}
	return &VersioningEngine{retryLimit: retryLimit, backoff: 5 * time.Millisecond, logger: logger}
}

// Seed records version 1 for a freshly created article.
func (e *VersioningEngine) Seed(ctx context.Context, tx repositories.Store, article *models.Article, actor uuid.UUID) (*models.ArticleVersion, error) {
	return e.insert(ctx, tx, article, 1, actor)
}

// Append records the article's current title and content as max+1.
func (e *VersioningEngine) Append(ctx context.Context, tx repositories.Store, article *models.Article, actor uuid.UUID) (*models.ArticleVersion, error) {
	latest, err := tx.Versions().MaxVersionNumber(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	return e.insert(ctx, tx, article, latest+1, actor)
}

func (e *VersioningEngine) insert(ctx context.Context, tx repositories.Store, article *models.Article, number int, actor uuid.UUID) (*models.ArticleVersion, error) {
	createdBy := actor
	version := &models.ArticleVersion{
		ArticleID:     article.ID,
		Title:         article.Title,
		Content:       article.Content,
		VersionNumber: number,
		CreatedBy:     &createdBy,
	}
	if err := tx.Versions().Create(ctx, version); err != nil {
		return nil, err
	}
	return version, nil
}

// Committed counts a version once the transaction that wrote it has
// committed.
func (e *VersioningEngine) Committed(origin string) {
	versionsAppended.WithLabelValues(origin).Inc()
}

// WithRetry runs fn until it succeeds, fails with something other than a
// version number conflict, or the retry budget is spent.
func (e *VersioningEngine) WithRetry(ctx context.Context, articleID uuid.UUID, fn func() error) error {
	var err error
	for attempt := 1; attempt <= e.retryLimit; attempt++ {
		err = fn()
		if !errors.Is(err, repositories.ErrDuplicateKey) {
			return err
		}

		versionConflicts.Inc()
		e.logger.DebugContext(ctx, "article version conflict",
			"article_id", articleID, "attempt", attempt)

		if attempt == e.retryLimit {
			break
		}
		if werr := e.wait(ctx, attempt); werr != nil {
			return werr
		}
	}

	versionConflictsExhausted.Inc()
	e.logger.WarnContext(ctx, "article version retry budget exhausted",
		"article_id", articleID, "attempts", e.retryLimit)
	return models.NewConflictError(
		fmt.Sprintf("could not assign a version number after %d attempts", e.retryLimit), err)
}

func (e *VersioningEngine) wait(ctx context.Context, attempt int) error {
	delay := e.backoff + time.Duration(rand.Int64N(int64(e.backoff)*int64(attempt)))
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return models.NewTransientError("article write interrupted", ctx.Err())
	case <-timer.C:
		return nil
	}
}
