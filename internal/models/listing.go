// internal/models/listing.go
package models

import (
	"github.com/google/uuid"
)

// Listing is an artwork offered for sale. It is owned by exactly one user.
type Listing struct {
	BaseModel
	OwnerID     uuid.UUID       `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title       string          `json:"title" gorm:"size:255;not null"`
	Artist      string          `json:"artist,omitempty" gorm:"size:255"`
	Year        *int            `json:"year,omitempty"`
	Description string          `json:"description" gorm:"type:text;not null"`
	Dimensions  string          `json:"dimensions,omitempty" gorm:"size:100"`
	Price       float64         `json:"price" gorm:"type:decimal(12,2);not null"`
	Category    ListingCategory `json:"category" gorm:"type:varchar(50);not null;index"`
	ImagePath   string          `json:"image_path" gorm:"size:500;not null"`

	// Resolved from ImagePath by the storage backend when the listing is returned.
	ImageURL string `json:"image_url,omitempty" gorm:"-"`

	// Relationships
	Owner  *User   `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Offers []Offer `json:"offers,omitempty" gorm:"foreignKey:ListingID"`
}
