package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primarykey"`
	ArticleID uuid.UUID  `json:"article_id" gorm:"type:uuid;not null;index"`
	AuthorID  uuid.UUID  `json:"author_id" gorm:"type:uuid;not null"`
	Author    *User      `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Content   string     `json:"content" gorm:"type:varchar(1000);not null"`
	ParentID  *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	Parent    *Comment   `json:"-" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Replies is populated when the comment was loaded as part of a tree.
	Replies []*Comment `json:"replies,omitempty" gorm:"-"`
	// RepliesLoaded distinguishes an empty loaded reply list from one
	// that was never fetched.
	RepliesLoaded bool `json:"-" gorm:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// BuildCommentTree links a flat, creation-ordered comment list into a
// forest and returns the top-level comments in the same order.
func BuildCommentTree(flat []Comment) []*Comment {
	nodes := make(map[uuid.UUID]*Comment, len(flat))
	ordered := make([]*Comment, 0, len(flat))
	for i := range flat {
		c := flat[i]
		c.Replies = []*Comment{}
		c.RepliesLoaded = true
		nodes[c.ID] = &c
		ordered = append(ordered, &c)
	}

	roots := []*Comment{}
	for _, c := range ordered {
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}
