package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"knowledge-base/models"
)

func identity(role models.UserRole) *models.Identity {
	return &models.Identity{UserID: uuid.New(), Role: role}
}

func TestArticleRules(t *testing.T) {
	author := identity(models.RoleEditor)
	other := identity(models.RoleEditor)
	admin := identity(models.RoleAdmin)
	viewer := identity(models.RoleViewer)

	published := &models.Article{AuthorID: author.UserID, Status: models.StatusPublished}
	draft := &models.Article{AuthorID: author.UserID, Status: models.StatusDraft}
	archived := &models.Article{AuthorID: author.UserID, Status: models.StatusArchived}

	cases := []struct {
		name string
		err  error
		want models.ErrorKind
	}{
		{"anonymous reads published", CanReadArticle(nil, published), ""},
		{"anonymous reads draft", CanReadArticle(nil, draft), models.KindAuthenticationRequired},
		{"other reads draft", CanReadArticle(other, draft), models.KindAuthorizationDenied},
		{"author reads draft", CanReadArticle(author, draft), ""},
		{"admin reads archived", CanReadArticle(admin, archived), ""},

		{"anonymous creates", CanCreateArticle(nil), models.KindAuthenticationRequired},
		{"viewer creates", CanCreateArticle(viewer), models.KindAuthorizationDenied},
		{"editor creates", CanCreateArticle(other), ""},
		{"admin creates", CanCreateArticle(admin), ""},

		{"anonymous updates", CanUpdateArticle(nil, published), models.KindAuthenticationRequired},
		{"author updates", CanUpdateArticle(author, published), ""},
		{"non-author updates", CanUpdateArticle(other, published), models.KindAuthorizationDenied},
		{"admin updates foreign", CanUpdateArticle(admin, published), models.KindAuthorizationDenied},

		{"anonymous deletes", CanDeleteArticle(nil), models.KindAuthenticationRequired},
		{"author deletes own", CanDeleteArticle(author), models.KindAuthorizationDenied},
		{"admin deletes", CanDeleteArticle(admin), ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.want == "" {
				assert.NoError(t, tc.err)
				return
			}
			assert.Equal(t, tc.want, models.KindOf(tc.err))
		})
	}
}

func TestCommentRules(t *testing.T) {
	author := identity(models.RoleViewer)
	other := identity(models.RoleAdmin)
	comment := &models.Comment{AuthorID: author.UserID}

	assert.Equal(t, models.KindAuthenticationRequired, models.KindOf(CanCreateComment(nil)))
	assert.NoError(t, CanCreateComment(author))

	assert.NoError(t, CanModifyComment(author, comment))
	assert.Equal(t, models.KindAuthorizationDenied, models.KindOf(CanModifyComment(other, comment)))
	assert.Equal(t, models.KindAuthenticationRequired, models.KindOf(CanModifyComment(nil, comment)))

	assert.NoError(t, CanReadComments(nil))
	assert.NoError(t, CanReadVersions(nil))
}

func TestCanSetUserRole(t *testing.T) {
	assert.Equal(t, models.KindAuthenticationRequired, models.KindOf(CanSetUserRole(nil)))
	assert.Equal(t, models.KindAuthorizationDenied, models.KindOf(CanSetUserRole(identity(models.RoleEditor))))
	assert.NoError(t, CanSetUserRole(identity(models.RoleAdmin)))
}
