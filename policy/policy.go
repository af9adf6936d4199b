// Package policy holds the authorization rules. Every function is a pure
// decision over the caller identity and, where relevant, the current state
// of the target resource. A nil return allows the operation.
package policy

import "knowledge-base/models"

func requireIdentity(actor *models.Identity) error {
	if actor == nil {
		return models.NewAuthenticationError("authentication required")
	}
	return nil
}

// CanReadArticle allows anyone to read published articles. Drafts and
// archived articles are visible to their author and to admins.
func CanReadArticle(actor *models.Identity, article *models.Article) error {
	if article.Status == models.StatusPublished {
		return nil
	}
	if err := requireIdentity(actor); err != nil {
		return err
	}
	if actor.IsAdmin() || actor.UserID == article.AuthorID {
		return nil
	}
	return models.NewAuthorizationError("article is not published")
}

func CanCreateArticle(actor *models.Identity) error {
	if err := requireIdentity(actor); err != nil {
		return err
	}
	switch actor.Role {
	case models.RoleEditor, models.RoleAdmin:
		return nil
	}
	return models.NewAuthorizationError("insufficient permissions: editor or admin role required")
}

// CanUpdateArticle restricts edits to the article's author. Admins are not
// exempt.
func CanUpdateArticle(actor *models.Identity, article *models.Article) error {
	if err := requireIdentity(actor); err != nil {
		return err
	}
	if actor.UserID != article.AuthorID {
		return models.NewAuthorizationError("only the author can update this article")
	}
	return nil
}

func CanDeleteArticle(actor *models.Identity) error {
	if err := requireIdentity(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return models.NewAuthorizationError("insufficient permissions: admin role required")
	}
	return nil
}

func CanCreateComment(actor *models.Identity) error {
	return requireIdentity(actor)
}

// CanModifyComment covers both update and delete.
func CanModifyComment(actor *models.Identity, comment *models.Comment) error {
	if err := requireIdentity(actor); err != nil {
		return err
	}
	if actor.UserID != comment.AuthorID {
		return models.NewAuthorizationError("only the author can modify this comment")
	}
	return nil
}

// CanReadComments and CanReadVersions are unrestricted.
func CanReadComments(*models.Identity) error { return nil }

func CanReadVersions(*models.Identity) error { return nil }

func CanSetUserRole(actor *models.Identity) error {
	if err := requireIdentity(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return models.NewAuthorizationError("insufficient permissions: admin role required")
	}
	return nil
}
