package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/graphql-go"

	"knowledge-base/models"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type userResolver struct {
	user *models.User
}

func (u *userResolver) ID() graphql.ID { return graphql.ID(u.user.ID.String()) }
func (u *userResolver) Email() string { return u.user.Email }
func (u *userResolver) FullName() *string { return u.user.FullName }
func (u *userResolver) AvatarURL() *string { return u.user.AvatarURL }
func (u *userResolver) Role() string { return string(u.user.Role) }
func (u *userResolver) CreatedAt() string { return formatTime(u.user.CreatedAt) }
func (u *userResolver) UpdatedAt() string { return formatTime(u.user.UpdatedAt) }

func optionalUser(u *models.User) *userResolver {
	if u == nil {
		return nil
	}
	return &userResolver{user: u}
}

type articleResolver struct {
	root    *Resolver
	article *models.Article
}

func (r *Resolver) article(a *models.Article) *articleResolver {
	return &articleResolver{root: r, article: a}
}

func (a *articleResolver) ID() graphql.ID { return graphql.ID(a.article.ID.String()) }
func (a *articleResolver) Title() string { return a.article.Title }
func (a *articleResolver) Content() string { return a.article.Content }
func (a *articleResolver) AuthorID() graphql.ID { return graphql.ID(a.article.AuthorID.String()) }
func (a *articleResolver) Author() *userResolver { return optionalUser(a.article.Author) }
func (a *articleResolver) Status() string { return string(a.article.Status) }
func (a *articleResolver) CreatedAt() string { return formatTime(a.article.CreatedAt) }
func (a *articleResolver) UpdatedAt() string { return formatTime(a.article.UpdatedAt) }

// Versions lists the ledger newest first.
func (a *articleResolver) Versions(ctx context.Context) (*[]*versionResolver, error) {
	versions, err := a.root.versions(ctx, a.article.ID)
	if err != nil {
		return nil, err
	}
	return &versions, nil
}

// Comments lists the top-level comments with their reply trees.
func (a *articleResolver) Comments(ctx context.Context) (*[]*commentResolver, error) {
	comments, err := a.root.commentTree(ctx, a.article.ID)
	if err != nil {
		return nil, err
	}
	return &comments, nil
}

func (r *Resolver) versions(ctx context.Context, articleID uuid.UUID) ([]*versionResolver, error) {
	versions, err := r.articles.ListVersions(ctx, models.IdentityFromContext(ctx), articleID)
	if err != nil {
		return nil, err
	}
	out := make([]*versionResolver, len(versions))
	for i := range versions {
		out[i] = &versionResolver{version: &versions[i]}
	}
	return out, nil
}

type versionResolver struct {
	version *models.ArticleVersion
}

func (v *versionResolver) ID() graphql.ID { return graphql.ID(v.version.ID.String()) }
func (v *versionResolver) ArticleID() graphql.ID { return graphql.ID(v.version.ArticleID.String()) }
func (v *versionResolver) Title() string { return v.version.Title }
func (v *versionResolver) Content() string { return v.version.Content }
func (v *versionResolver) VersionNumber() int32 { return int32(v.version.VersionNumber) }
func (v *versionResolver) CreatedBy() *graphql.ID { return optionalID(v.version.CreatedBy) }
func (v *versionResolver) CreatedAt() string { return formatTime(v.version.CreatedAt) }

type commentResolver struct {
	root    *Resolver
	comment *models.Comment
}

func (r *Resolver) comment(c *models.Comment) *commentResolver {
	return &commentResolver{root: r, comment: c}
}

func (r *Resolver) commentTree(ctx context.Context, articleID uuid.UUID) ([]*commentResolver, error) {
	roots, err := r.comments.ListComments(ctx, models.IdentityFromContext(ctx), articleID)
	if err != nil {
		return nil, err
	}
	return r.commentList(roots), nil
}

func (r *Resolver) commentList(comments []*models.Comment) []*commentResolver {
	out := make([]*commentResolver, len(comments))
	for i, c := range comments {
		out[i] = r.comment(c)
	}
	return out
}

func (c *commentResolver) ID() graphql.ID { return graphql.ID(c.comment.ID.String()) }
func (c *commentResolver) ArticleID() graphql.ID { return graphql.ID(c.comment.ArticleID.String()) }
func (c *commentResolver) AuthorID() graphql.ID { return graphql.ID(c.comment.AuthorID.String()) }
func (c *commentResolver) Author() *userResolver { return optionalUser(c.comment.Author) }
func (c *commentResolver) Content() string { return c.comment.Content }
func (c *commentResolver) ParentID() *graphql.ID { return optionalID(c.comment.ParentID) }
func (c *commentResolver) CreatedAt() string { return formatTime(c.comment.CreatedAt) }
func (c *commentResolver) UpdatedAt() string { return formatTime(c.comment.UpdatedAt) }

// Replies uses the tree loaded with the thread when there is one and
// falls back to one query for the direct children otherwise.
func (c *commentResolver) Replies(ctx context.Context) (*[]*commentResolver, error) {
	replies := c.comment.Replies
	if !c.comment.RepliesLoaded {
		loaded, err := c.root.comments.ListReplies(ctx, c.comment.ID)
		if err != nil {
			return nil, err
		}
		replies = loaded
	}
	out := c.root.commentList(replies)
	return &out, nil
}
