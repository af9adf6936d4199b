package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArticleVersion is an immutable snapshot in an article's version ledger.
type ArticleVersion struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primarykey"`
	ArticleID     uuid.UUID  `json:"article_id" gorm:"type:uuid;not null;uniqueIndex:idx_article_version_number,priority:1"`
	Title         string     `json:"title" gorm:"type:varchar(200);not null"`
	Content       string     `json:"content" gorm:"type:text;not null"`
	VersionNumber int        `json:"version_number" gorm:"not null;uniqueIndex:idx_article_version_number,priority:2"`
	CreatedBy     *uuid.UUID `json:"created_by" gorm:"type:uuid"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (v *ArticleVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
