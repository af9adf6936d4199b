package graph

import (
	"github.com/google/uuid"
	"github.com/graph-gophers/graphql-go"

	"knowledge-base/helper"
	"knowledge-base/models"
	"knowledge-base/services"
)

// Resolver is the root of the Query and Mutation types.
type Resolver struct {
	articles  services.ArticleService
	comments  services.CommentService
	users     services.UserService
	validator *helper.Validator
}

func NewResolver(articles services.ArticleService, comments services.CommentService, users services.UserService, validator *helper.Validator) *Resolver {
	return &Resolver{
		articles:  articles,
		comments:  comments,
		users:     users,
		validator: validator,
	}
}

// parseID converts an already validated ID argument.
func parseID(id string) uuid.UUID {
	return uuid.MustParse(id)
}

func parseOptionalID(id *string) *uuid.UUID {
	if id == nil {
		return nil
	}
	parsed := parseID(*id)
	return &parsed
}

func optionalID(id *uuid.UUID) *graphql.ID {
	if id == nil {
		return nil
	}
	gid := graphql.ID(id.String())
	return &gid
}

func toStatus(s *string) *models.ArticleStatus {
	if s == nil {
		return nil
	}
	status := models.ArticleStatus(*s)
	return &status
}
