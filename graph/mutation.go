package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"

	"knowledge-base/models"
)

type updateArticleArgs struct {
	ID      graphql.ID
	Title   *string
	Content *string
	Status  *string
}

type createCommentArgs struct {
	ArticleID graphql.ID
	Content   string
	ParentID  *graphql.ID
}

func (r *Resolver) CreateArticle(ctx context.Context, args struct{ Title, Content string }) (*articleResolver, error) {
	if err := r.validator.Struct(models.CreateArticleInput{Title: args.Title, Content: args.Content}); err != nil {
		return nil, err
	}

	article, err := r.articles.CreateArticle(ctx, models.IdentityFromContext(ctx), args.Title, args.Content)
	if err != nil {
		return nil, err
	}
	return r.article(article), nil
}

func (r *Resolver) UpdateArticle(ctx context.Context, args updateArticleArgs) (*articleResolver, error) {
	input := models.UpdateArticleInput{
		ID:      string(args.ID),
		Title:   args.Title,
		Content: args.Content,
		Status:  args.Status,
	}
	if err := r.validator.Struct(input); err != nil {
		return nil, err
	}

	changes := models.ArticleChanges{
		Title:   args.Title,
		Content: args.Content,
		Status:  toStatus(args.Status),
	}
	article, err := r.articles.UpdateArticle(ctx, models.IdentityFromContext(ctx), parseID(input.ID), changes)
	if err != nil {
		return nil, err
	}
	return r.article(article), nil
}

func (r *Resolver) DeleteArticle(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	if err := r.validator.Struct(models.IDInput{ID: string(args.ID)}); err != nil {
		return false, err
	}
	if err := r.articles.DeleteArticle(ctx, models.IdentityFromContext(ctx), parseID(string(args.ID))); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Resolver) RestoreArticleVersion(ctx context.Context, args struct {
	ArticleID     graphql.ID
	VersionNumber int32
}) (*articleResolver, error) {
	input := models.RestoreVersionInput{ArticleID: string(args.ArticleID), VersionNumber: int(args.VersionNumber)}
	if err := r.validator.Struct(input); err != nil {
		return nil, err
	}

	article, err := r.articles.RestoreVersion(ctx, models.IdentityFromContext(ctx), parseID(input.ArticleID), input.VersionNumber)
	if err != nil {
		return nil, err
	}
	return r.article(article), nil
}

func (r *Resolver) CreateComment(ctx context.Context, args createCommentArgs) (*commentResolver, error) {
	input := models.CreateCommentInput{
		ArticleID: string(args.ArticleID),
		Content:   args.Content,
	}
	if args.ParentID != nil {
		parentID := string(*args.ParentID)
		input.ParentID = &parentID
	}
	if err := r.validator.Struct(input); err != nil {
		return nil, err
	}

	comment, err := r.comments.CreateComment(ctx, models.IdentityFromContext(ctx),
		parseID(input.ArticleID), input.Content, parseOptionalID(input.ParentID))
	if err != nil {
		return nil, err
	}
	return r.comment(comment), nil
}

func (r *Resolver) UpdateComment(ctx context.Context, args struct {
	ID      graphql.ID
	Content string
}) (*commentResolver, error) {
	input := models.UpdateCommentInput{ID: string(args.ID), Content: args.Content}
	if err := r.validator.Struct(input); err != nil {
		return nil, err
	}

	comment, err := r.comments.UpdateComment(ctx, models.IdentityFromContext(ctx), parseID(input.ID), input.Content)
	if err != nil {
		return nil, err
	}
	return r.comment(comment), nil
}

func (r *Resolver) DeleteComment(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	if err := r.validator.Struct(models.IDInput{ID: string(args.ID)}); err != nil {
		return false, err
	}
	if err := r.comments.DeleteComment(ctx, models.IdentityFromContext(ctx), parseID(string(args.ID))); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Resolver) SetUserRole(ctx context.Context, args struct {
	UserID graphql.ID
	Role   string
}) (*userResolver, error) {
	input := models.SetUserRoleInput{UserID: string(args.UserID), Role: args.Role}
	if err := r.validator.Struct(input); err != nil {
		return nil, err
	}

	user, err := r.users.SetUserRole(ctx, models.IdentityFromContext(ctx), parseID(input.UserID), models.UserRole(input.Role))
	if err != nil {
		return nil, err
	}
	return &userResolver{user: user}, nil
}
