package models

type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	FullName *string `json:"full_name" binding:"omitempty,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// The inputs below are checked with the validator.v9 instance in helper
// before any resolver logic runs.

type CreateArticleInput struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"required"`
}

type UpdateArticleInput struct {
	ID      string  `json:"id" validate:"required,uuid"`
	Title   *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content *string `json:"content" validate:"omitempty,min=1"`
	Status  *string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

type RestoreVersionInput struct {
	ArticleID     string `json:"article_id" validate:"required,uuid"`
	VersionNumber int    `json:"version_number" validate:"required,min=1"`
}

type CreateCommentInput struct {
	ArticleID string  `json:"article_id" validate:"required,uuid"`
	Content   string  `json:"content" validate:"required,min=1,max=1000"`
	ParentID  *string `json:"parent_id" validate:"omitempty,uuid"`
}

type UpdateCommentInput struct {
	ID      string `json:"id" validate:"required,uuid"`
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

type SetUserRoleInput struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=viewer editor admin"`
}

type IDInput struct {
	ID string `json:"id" validate:"required,uuid"`
}

type ArticleFilterInput struct {
	Status *string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

type ArticleListParams struct {
	Status *ArticleStatus
}
