package services

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"

	"knowledge-base/models"
	"knowledge-base/policy"
	"knowledge-base/repositories"
)

const maxCommentLength = 1000

type CommentService interface {
	// ListComments returns the top-level comments of an article with their
	// reply trees attached, all ordered by creation time ascending.
	ListComments(ctx context.Context, actor *models.Identity, articleID uuid.UUID) ([]*models.Comment, error)
	ListReplies(ctx context.Context, parentID uuid.UUID) ([]*models.Comment, error)
	CreateComment(ctx context.Context, actor *models.Identity, articleID uuid.UUID, content string, parentID *uuid.UUID) (*models.Comment, error)
	UpdateComment(ctx context.Context, actor *models.Identity, id uuid.UUID, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actor *models.Identity, id uuid.UUID) error
}

type commentService struct {
	store  repositories.Store
	logger *slog.Logger
}

func NewCommentService(store repositories.Store, logger *slog.Logger) CommentService {
	return &commentService{store: store, logger: logger}
}

// ListComments loads the whole thread in one query and links it in memory
// instead of issuing one query per reply level.
func (s *commentService) ListComments(ctx context.Context, actor *models.Identity, articleID uuid.UUID) ([]*models.Comment, error) {
	if err := policy.CanReadComments(actor); err != nil {
		return nil, err
	}
	flat, err := s.store.Comments().ListByArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return models.BuildCommentTree(flat), nil
}

func (s *commentService) ListReplies(ctx context.Context, parentID uuid.UUID) ([]*models.Comment, error) {
	replies, err := s.store.Comments().ListReplies(ctx, parentID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Comment, len(replies))
	for i := range replies {
		out[i] = &replies[i]
	}
	return out, nil
}

func (s *commentService) CreateComment(ctx context.Context, actor *models.Identity, articleID uuid.UUID, content string, parentID *uuid.UUID) (*models.Comment, error) {
	if err := validateCommentContent(content); err != nil {
		return nil, err
	}
	if err := policy.CanCreateComment(actor); err != nil {
		return nil, err
	}

	var created *models.Comment
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Articles().GetByID(ctx, articleID); err != nil {
			return storeError(err, "article")
		}

		if parentID != nil {
			parent, err := tx.Comments().GetByID(ctx, *parentID)
			if err != nil {
				return storeError(err, "parent comment")
			}
			if parent.ArticleID != articleID {
				return models.NewValidationError("invalid input", map[string][]string{
					"parent_id": {"parent comment belongs to a different article"},
				})
			}
		}

		comment := &models.Comment{
			ArticleID: articleID,
			AuthorID:  actor.UserID,
			Content:   content,
			ParentID:  parentID,
		}
		if err := tx.Comments().Create(ctx, comment); err != nil {
			return err
		}

		loaded, err := tx.Comments().GetByID(ctx, comment.ID)
		if err != nil {
			return err
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, storeError(err, "comment")
	}

	s.logger.InfoContext(ctx, "comment created",
		"comment_id", created.ID, "article_id", articleID, "author_id", actor.UserID)
	return created, nil
}

func (s *commentService) UpdateComment(ctx context.Context, actor *models.Identity, id uuid.UUID, content string) (*models.Comment, error) {
	if err := validateCommentContent(content); err != nil {
		return nil, err
	}

	comment, err := s.store.Comments().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "comment")
	}
	if err := policy.CanModifyComment(actor, comment); err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.store.Comments().UpdateContent(ctx, comment); err != nil {
		return nil, storeError(err, "comment")
	}
	return comment, nil
}

func (s *commentService) DeleteComment(ctx context.Context, actor *models.Identity, id uuid.UUID) error {
	comment, err := s.store.Comments().GetByID(ctx, id)
	if err != nil {
		return storeError(err, "comment")
	}
	if err := policy.CanModifyComment(actor, comment); err != nil {
		return err
	}

	if err := s.store.Comments().Delete(ctx, id); err != nil {
		return storeError(err, "comment")
	}

	s.logger.InfoContext(ctx, "comment deleted", "comment_id", id, "actor_id", actor.UserID)
	return nil
}

func validateCommentContent(content string) error {
	var msg string
	switch {
	case content == "":
		msg = "content is required"
	case utf8.RuneCountInString(content) > maxCommentLength:
		msg = "content must be a maximum of 1000 characters in length"
	default:
		return nil
	}
	return models.NewValidationError("invalid input", map[string][]string{"content": {msg}})
}
