package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
	StatusArchived  ArticleStatus = "archived"
)

func (s ArticleStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

type Article struct {
	ID        uuid.UUID        `json:"id" gorm:"type:uuid;primarykey"`
	Title     string           `json:"title" gorm:"type:varchar(200);not null"`
	Content   string           `json:"content" gorm:"type:text;not null"`
	AuthorID  uuid.UUID        `json:"author_id" gorm:"type:uuid;not null;index"`
	Author    *User            `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Status    ArticleStatus    `json:"status" gorm:"type:varchar(16);not null;default:'published';index"`
	Versions  []ArticleVersion `json:"versions,omitempty" gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
	Comments  []Comment        `json:"comments,omitempty" gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `json:"created_at" gorm:"index"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ArticleChanges carries a partial update. Nil fields are left unchanged.
type ArticleChanges struct {
	Title   *string
	Content *string
	Status  *ArticleStatus
}

// AffectsContent reports whether the change must be recorded in the
// version ledger.
func (c ArticleChanges) AffectsContent() bool {
	return c.Title != nil || c.Content != nil
}

// Apply copies the provided fields onto a.
func (c ArticleChanges) Apply(a *Article) {
	if c.Title != nil {
		a.Title = *c.Title
	}
	if c.Content != nil {
		a.Content = *c.Content
	}
	if c.Status != nil {
		a.Status = *c.Status
	}
}
