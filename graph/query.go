package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"

	"knowledge-base/models"
)

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	user, err := r.users.Me(ctx, models.IdentityFromContext(ctx))
	if err != nil || user == nil {
		return nil, err
	}
	return &userResolver{user: user}, nil
}

func (r *Resolver) Articles(ctx context.Context, args struct{ Status *string }) ([]*articleResolver, error) {
	if err := r.validator.Struct(models.ArticleFilterInput{Status: args.Status}); err != nil {
		return nil, err
	}

	articles, err := r.articles.ListArticles(ctx, models.IdentityFromContext(ctx), toStatus(args.Status))
	if err != nil {
		return nil, err
	}

	out := make([]*articleResolver, len(articles))
	for i := range articles {
		out[i] = r.article(&articles[i])
	}
	return out, nil
}

func (r *Resolver) Article(ctx context.Context, args struct{ ID graphql.ID }) (*articleResolver, error) {
	if err := r.validator.Struct(models.IDInput{ID: string(args.ID)}); err != nil {
		return nil, err
	}

	article, err := r.articles.GetArticle(ctx, models.IdentityFromContext(ctx), parseID(string(args.ID)))
	if err != nil || article == nil {
		return nil, err
	}
	return r.article(article), nil
}

func (r *Resolver) ArticleVersions(ctx context.Context, args struct{ ArticleID graphql.ID }) ([]*versionResolver, error) {
	if err := r.validator.Struct(models.IDInput{ID: string(args.ArticleID)}); err != nil {
		return nil, err
	}
	return r.versions(ctx, parseID(string(args.ArticleID)))
}

func (r *Resolver) Comments(ctx context.Context, args struct{ ArticleID graphql.ID }) ([]*commentResolver, error) {
	if err := r.validator.Struct(models.IDInput{ID: string(args.ArticleID)}); err != nil {
		return nil, err
	}
	return r.commentTree(ctx, parseID(string(args.ArticleID)))
}
