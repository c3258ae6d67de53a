// internal/models/post.go
package models

import (
	"github.com/google/uuid"
)

// Post is a community forum entry.
type Post struct {
	BaseModel
	AuthorID  uuid.UUID `json:"author_id" gorm:"type:uuid;not null;index"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	ImagePath string    `json:"image_path,omitempty" gorm:"size:500"`

	ImageURL string `json:"image_url,omitempty" gorm:"-"`

	// Relationships
	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}
